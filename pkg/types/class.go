package types

// Attribute is a raw attribute_info entry whose contents are not interpreted.
type Attribute struct {
	Name string
	Data []byte
}

// ExceptionHandler is one row of a Code attribute's exception table.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // Constant pool index of the caught class; 0 catches everything.
}

// Code is the decoded Code attribute of a concrete method.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// Field is a decoded field_info entry.
type Field struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Type returns the field's Java type in source form, for example
// "java.lang.String[]".
func (f Field) Type() (string, error) {
	return ParseFieldDescriptor(f.Descriptor)
}

// Method is a decoded method_info entry. Code is nil for abstract and native
// methods.
type Method struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Code        *Code
	Attributes  []Attribute
}

// Signature renders the method in source form, for example
// "public static void main(java.lang.String[])". An unparsable descriptor is
// rendered verbatim after the name.
func (m Method) Signature() string {
	args, ret, err := ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		return m.Name + m.Descriptor
	}
	return formatSignature(m.AccessFlags, m.Name, args, ret)
}

// JavaClass is the structured result of decoding one class unit.
type JavaClass struct {
	UnitName       string // Member name the class was decoded from.
	MinorVersion   uint16
	MajorVersion   uint16
	ConstantPool   ConstantPool
	AccessFlags    AccessFlags
	ClassName      string // Fully qualified, dotted (com.x.A).
	SuperclassName string // Empty only for java.lang.Object and module-info.
	Interfaces     []string
	Fields         []Field
	Methods        []Method
	SourceFile     string // From the SourceFile attribute, if present.
	Attributes     []Attribute
}

// PackageName returns the package part of the class name, or "" for the
// default package.
func (c *JavaClass) PackageName() string {
	for i := len(c.ClassName) - 1; i >= 0; i-- {
		if c.ClassName[i] == '.' {
			return c.ClassName[:i]
		}
	}
	return ""
}

// IsInterface reports whether the class is an interface.
func (c *JavaClass) IsInterface() bool {
	return c.AccessFlags.Has(AccInterface)
}

// Method returns the first method with the given name and descriptor.
func (c *JavaClass) Method(name, descriptor string) (Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m, true
		}
	}
	return Method{}, false
}
