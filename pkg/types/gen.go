package types

import (
	"fmt"
	"slices"
)

// ClassGen is the generation view of a decoded class. It owns a private
// ConstantPoolGen copied from the class, so edits made through it leave the
// decoded class untouched.
type ClassGen struct {
	UnitName       string
	ClassName      string
	SuperclassName string
	Interfaces     []string
	AccessFlags    AccessFlags
	MajorVersion   uint16
	MinorVersion   uint16
	Fields         []Field
	Methods        []Method
	Pool           *ConstantPoolGen
}

// NewClassGen builds a generation view of c.
func NewClassGen(c *JavaClass) *ClassGen {
	return &ClassGen{
		UnitName:       c.UnitName,
		ClassName:      c.ClassName,
		SuperclassName: c.SuperclassName,
		Interfaces:     slices.Clone(c.Interfaces),
		AccessFlags:    c.AccessFlags,
		MajorVersion:   c.MajorVersion,
		MinorVersion:   c.MinorVersion,
		Fields:         slices.Clone(c.Fields),
		Methods:        slices.Clone(c.Methods),
		Pool:           NewConstantPoolGen(c.ConstantPool),
	}
}

// MethodGens binds every method of the class to the class's pool, in
// declaration order. All returned handles share g.Pool.
func (g *ClassGen) MethodGens() ([]*MethodGen, error) {
	gens := make([]*MethodGen, 0, len(g.Methods))
	for _, m := range g.Methods {
		mg, err := NewMethodGen(m, g.ClassName, g.Pool)
		if err != nil {
			return nil, err
		}
		gens = append(gens, mg)
	}
	return gens, nil
}

// MethodGen is a method bound to its declaring class and to a constant pool
// in generation form.
type MethodGen struct {
	ClassName  string
	Method     Method
	Pool       *ConstantPoolGen
	argTypes   []string
	returnType string
}

// NewMethodGen binds m, declared by className, to pool. It fails with
// ErrInvalidDescriptor if the method descriptor cannot be parsed.
func NewMethodGen(m Method, className string, pool *ConstantPoolGen) (*MethodGen, error) {
	args, ret, err := ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", className, m.Name, err)
	}
	return &MethodGen{
		ClassName:  className,
		Method:     m,
		Pool:       pool,
		argTypes:   args,
		returnType: ret,
	}, nil
}

// Name returns the method name.
func (g *MethodGen) Name() string { return g.Method.Name }

// Descriptor returns the raw method descriptor.
func (g *MethodGen) Descriptor() string { return g.Method.Descriptor }

// AccessFlags returns the method's access flags.
func (g *MethodGen) AccessFlags() AccessFlags { return g.Method.AccessFlags }

// ArgumentTypes returns the parameter types in source form.
func (g *MethodGen) ArgumentTypes() []string { return slices.Clone(g.argTypes) }

// ReturnType returns the return type in source form.
func (g *MethodGen) ReturnType() string { return g.returnType }

// MaxStack returns the operand stack depth, or 0 without a Code attribute.
func (g *MethodGen) MaxStack() uint16 {
	if g.Method.Code == nil {
		return 0
	}
	return g.Method.Code.MaxStack
}

// MaxLocals returns the local variable count, or 0 without a Code attribute.
func (g *MethodGen) MaxLocals() uint16 {
	if g.Method.Code == nil {
		return 0
	}
	return g.Method.Code.MaxLocals
}

// Bytecode returns a copy of the method's instructions.
func (g *MethodGen) Bytecode() []byte {
	if g.Method.Code == nil {
		return nil
	}
	return slices.Clone(g.Method.Code.Bytecode)
}

// IsAbstract reports whether the method has no body.
func (g *MethodGen) IsAbstract() bool {
	return g.Method.Code == nil
}

// String renders the handle as "ClassName: signature".
func (g *MethodGen) String() string {
	return g.ClassName + ": " + formatSignature(g.Method.AccessFlags, g.Method.Name, g.argTypes, g.returnType)
}
