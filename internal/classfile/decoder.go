// Package classfile decodes JVM class files into types.JavaClass values.
package classfile

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mesh-intelligence/classreg/pkg/types"
)

// Magic is the first four bytes of every class file.
const Magic = 0xCAFEBABE

// MinMajorVersion is the oldest class file version accepted (JDK 1.1).
const MinMajorVersion = 45

// ErrMalformed is wrapped by every error caused by bytes that are not a
// well-formed class file.
var ErrMalformed = errors.New("malformed class file")

// Decoder implements types.Decoder for the JVM class file format.
type Decoder struct{}

// NewDecoder returns a class file decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

var _ types.Decoder = (*Decoder)(nil)

// Decode reads the whole of r and parses it as a class file. unitName is
// stored as the class's UnitName.
func (d *Decoder) Decode(r io.Reader, unitName string) (*types.JavaClass, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", unitName, err)
	}
	return d.DecodeBytes(data, unitName)
}

// DecodeBytes parses data as a class file.
func (d *Decoder) DecodeBytes(data []byte, unitName string) (*types.JavaClass, error) {
	p := &parser{r: reader{data: data}}
	cls, err := p.parse()
	if err != nil {
		return nil, err
	}
	cls.UnitName = unitName
	return cls, nil
}

// parser holds decoding state for one class file.
type parser struct {
	r    reader
	pool types.ConstantPool
}

func (p *parser) parse() (*types.JavaClass, error) {
	magic, err := p.r.u4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", ErrMalformed, magic)
	}

	cls := &types.JavaClass{}
	if cls.MinorVersion, err = p.r.u2(); err != nil {
		return nil, err
	}
	if cls.MajorVersion, err = p.r.u2(); err != nil {
		return nil, err
	}
	if cls.MajorVersion < MinMajorVersion {
		return nil, fmt.Errorf("%w: unsupported major version %d", ErrMalformed, cls.MajorVersion)
	}

	if err := p.readConstantPool(); err != nil {
		return nil, err
	}
	cls.ConstantPool = p.pool

	flags, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	cls.AccessFlags = types.AccessFlags(flags)

	thisIndex, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	if cls.ClassName, err = p.className(thisIndex); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}

	superIndex, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	if superIndex != 0 {
		if cls.SuperclassName, err = p.className(superIndex); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	if cls.Interfaces, err = p.readInterfaces(); err != nil {
		return nil, err
	}
	if cls.Fields, err = p.readFields(); err != nil {
		return nil, err
	}
	if cls.Methods, err = p.readMethods(); err != nil {
		return nil, err
	}
	if cls.Attributes, err = p.readAttributes(); err != nil {
		return nil, err
	}
	for _, a := range cls.Attributes {
		if a.Name != "SourceFile" {
			continue
		}
		if len(a.Data) != 2 {
			return nil, fmt.Errorf("%w: SourceFile attribute length %d", ErrMalformed, len(a.Data))
		}
		if cls.SourceFile, err = p.utf8(uint16(a.Data[0])<<8 | uint16(a.Data[1])); err != nil {
			return nil, fmt.Errorf("SourceFile: %w", err)
		}
	}

	if n := p.r.remaining(); n != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, n)
	}
	return cls, nil
}

// malformed wraps a constant pool lookup error so that it also matches
// ErrMalformed.
func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

func (p *parser) utf8(i uint16) (string, error) {
	s, err := p.pool.Utf8(int(i))
	if err != nil {
		return "", malformed(err)
	}
	return s, nil
}

func (p *parser) className(i uint16) (string, error) {
	s, err := p.pool.ClassName(int(i))
	if err != nil {
		return "", malformed(err)
	}
	return s, nil
}

func (p *parser) readConstantPool() error {
	count, err := p.r.u2()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: constant_pool_count is zero", ErrMalformed)
	}

	entries := make([]types.Constant, count)
	for i := 1; i < int(count); i++ {
		c, err := p.readConstant()
		if err != nil {
			return fmt.Errorf("constant #%d: %w", i, err)
		}
		entries[i] = c
		if c.Tag.Wide() {
			i++
			if i >= int(count) {
				return fmt.Errorf("%w: constant #%d: %s overflows the pool", ErrMalformed, i-1, c.Tag)
			}
		}
	}
	p.pool = types.NewConstantPool(entries)
	return p.checkConstantPool(entries)
}

func (p *parser) readConstant() (types.Constant, error) {
	tag, err := p.r.u1()
	if err != nil {
		return types.Constant{}, err
	}
	c := types.Constant{Tag: types.ConstantTag(tag)}

	switch c.Tag {
	case types.TagUtf8:
		n, err := p.r.u2()
		if err != nil {
			return c, err
		}
		raw, err := p.r.bytes(int(n))
		if err != nil {
			return c, err
		}
		if c.Utf8, err = decodeModifiedUTF8(raw); err != nil {
			return c, err
		}
	case types.TagInteger:
		v, err := p.r.u4()
		if err != nil {
			return c, err
		}
		c.Int = int64(int32(v))
	case types.TagFloat:
		v, err := p.r.u4()
		if err != nil {
			return c, err
		}
		c.Float = float64(math.Float32frombits(v))
	case types.TagLong:
		v, err := p.r.u8()
		if err != nil {
			return c, err
		}
		c.Int = int64(v)
	case types.TagDouble:
		v, err := p.r.u8()
		if err != nil {
			return c, err
		}
		c.Float = math.Float64frombits(v)
	case types.TagClass, types.TagString, types.TagMethodType, types.TagModule, types.TagPackage:
		if c.Index1, err = p.r.u2(); err != nil {
			return c, err
		}
	case types.TagFieldref, types.TagMethodref, types.TagInterfaceMethodref,
		types.TagNameAndType, types.TagDynamic, types.TagInvokeDynamic:
		if c.Index1, err = p.r.u2(); err != nil {
			return c, err
		}
		if c.Index2, err = p.r.u2(); err != nil {
			return c, err
		}
	case types.TagMethodHandle:
		if c.Kind, err = p.r.u1(); err != nil {
			return c, err
		}
		if c.Kind < 1 || c.Kind > 9 {
			return c, fmt.Errorf("%w: reference_kind %d", ErrMalformed, c.Kind)
		}
		if c.Index1, err = p.r.u2(); err != nil {
			return c, err
		}
	default:
		return c, fmt.Errorf("%w: unknown constant tag %d", ErrMalformed, tag)
	}
	return c, nil
}

// checkConstantPool verifies that every index stored in the pool points at an
// entry of the expected kind.
func (p *parser) checkConstantPool(entries []types.Constant) error {
	expect := func(i int, idx uint16, tags ...types.ConstantTag) error {
		c, err := p.pool.Constant(int(idx))
		if err != nil {
			return fmt.Errorf("constant #%d: %w", i, malformed(err))
		}
		for _, t := range tags {
			if c.Tag == t {
				return nil
			}
		}
		return fmt.Errorf("%w: constant #%d refers to #%d of kind %s", ErrMalformed, i, idx, c.Tag)
	}

	for i, c := range entries {
		var err error
		switch c.Tag {
		case types.TagClass, types.TagString, types.TagMethodType, types.TagModule, types.TagPackage:
			err = expect(i, c.Index1, types.TagUtf8)
		case types.TagFieldref, types.TagMethodref, types.TagInterfaceMethodref:
			if err = expect(i, c.Index1, types.TagClass); err == nil {
				err = expect(i, c.Index2, types.TagNameAndType)
			}
		case types.TagNameAndType:
			if err = expect(i, c.Index1, types.TagUtf8); err == nil {
				err = expect(i, c.Index2, types.TagUtf8)
			}
		case types.TagDynamic, types.TagInvokeDynamic:
			err = expect(i, c.Index2, types.TagNameAndType)
		case types.TagMethodHandle:
			err = expect(i, c.Index1, types.TagFieldref, types.TagMethodref, types.TagInterfaceMethodref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readInterfaces() ([]string, error) {
	n, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		idx, err := p.r.u2()
		if err != nil {
			return nil, err
		}
		name, err := p.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// member is the shared layout of field_info and method_info.
type member struct {
	flags      types.AccessFlags
	name       string
	descriptor string
	attributes []types.Attribute
}

func (p *parser) readMember() (member, error) {
	var m member
	flags, err := p.r.u2()
	if err != nil {
		return m, err
	}
	m.flags = types.AccessFlags(flags)

	nameIndex, err := p.r.u2()
	if err != nil {
		return m, err
	}
	if m.name, err = p.utf8(nameIndex); err != nil {
		return m, err
	}
	descIndex, err := p.r.u2()
	if err != nil {
		return m, err
	}
	if m.descriptor, err = p.utf8(descIndex); err != nil {
		return m, err
	}
	if m.attributes, err = p.readAttributes(); err != nil {
		return m, err
	}
	return m, nil
}

func (p *parser) readFields() ([]types.Field, error) {
	n, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]types.Field, 0, n)
	for i := 0; i < int(n); i++ {
		m, err := p.readMember()
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if _, err := types.ParseFieldDescriptor(m.descriptor); err != nil {
			return nil, fmt.Errorf("field %s: %w", m.name, malformed(err))
		}
		fields = append(fields, types.Field{
			AccessFlags: m.flags,
			Name:        m.name,
			Descriptor:  m.descriptor,
			Attributes:  m.attributes,
		})
	}
	return fields, nil
}

func (p *parser) readMethods() ([]types.Method, error) {
	n, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]types.Method, 0, n)
	for i := 0; i < int(n); i++ {
		m, err := p.readMember()
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		if _, _, err := types.ParseMethodDescriptor(m.descriptor); err != nil {
			return nil, fmt.Errorf("method %s: %w", m.name, malformed(err))
		}
		method := types.Method{
			AccessFlags: m.flags,
			Name:        m.name,
			Descriptor:  m.descriptor,
		}
		for _, a := range m.attributes {
			if a.Name != "Code" {
				method.Attributes = append(method.Attributes, a)
				continue
			}
			if method.Code != nil {
				return nil, fmt.Errorf("%w: method %s has more than one Code attribute", ErrMalformed, m.name)
			}
			if method.Code, err = p.parseCode(a.Data); err != nil {
				return nil, fmt.Errorf("method %s: %w", m.name, err)
			}
		}
		methods = append(methods, method)
	}
	return methods, nil
}

func (p *parser) readAttributes() ([]types.Attribute, error) {
	n, err := p.r.u2()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	attrs := make([]types.Attribute, 0, n)
	for i := 0; i < int(n); i++ {
		nameIndex, err := p.r.u2()
		if err != nil {
			return nil, err
		}
		name, err := p.utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		length, err := p.r.u4()
		if err != nil {
			return nil, err
		}
		if uint64(length) > uint64(p.r.remaining()) {
			return nil, fmt.Errorf("%w: attribute %s length %d exceeds remaining %d bytes",
				ErrMalformed, name, length, p.r.remaining())
		}
		data, err := p.r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, types.Attribute{Name: name, Data: data})
	}
	return attrs, nil
}

// parseCode decodes the body of a Code attribute with a sub-parser that
// shares the class's constant pool.
func (p *parser) parseCode(data []byte) (*types.Code, error) {
	sub := &parser{r: reader{data: data}, pool: p.pool}
	code := &types.Code{}
	var err error
	if code.MaxStack, err = sub.r.u2(); err != nil {
		return nil, err
	}
	if code.MaxLocals, err = sub.r.u2(); err != nil {
		return nil, err
	}
	length, err := sub.r.u4()
	if err != nil {
		return nil, err
	}
	if length == 0 || uint64(length) > uint64(sub.r.remaining()) {
		return nil, fmt.Errorf("%w: code_length %d", ErrMalformed, length)
	}
	if code.Bytecode, err = sub.r.bytes(int(length)); err != nil {
		return nil, err
	}

	n, err := sub.r.u2()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		code.ExceptionTable = make([]types.ExceptionHandler, 0, n)
	}
	for i := 0; i < int(n); i++ {
		var h types.ExceptionHandler
		for _, dst := range []*uint16{&h.StartPC, &h.EndPC, &h.HandlerPC, &h.CatchType} {
			if *dst, err = sub.r.u2(); err != nil {
				return nil, err
			}
		}
		code.ExceptionTable = append(code.ExceptionTable, h)
	}

	if code.Attributes, err = sub.readAttributes(); err != nil {
		return nil, err
	}
	if rest := sub.r.remaining(); rest != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in Code attribute", ErrMalformed, rest)
	}
	return code, nil
}
