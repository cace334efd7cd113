package types

import (
	"fmt"
	"slices"
)

// ConstantTag identifies the kind of a constant pool entry.
type ConstantTag uint8

// Constant pool tags.
const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

var tagNames = map[ConstantTag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t ConstantTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Wide reports whether the constant occupies two pool slots.
func (t ConstantTag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// Constant is one constant pool entry. Which fields are meaningful depends on
// Tag:
//
//	Utf8                      Utf8
//	Integer, Long             Int
//	Float, Double             Float
//	Class, String, MethodType Index1 (Utf8 index)
//	Module, Package           Index1 (Utf8 index)
//	*ref                      Index1 (Class), Index2 (NameAndType)
//	NameAndType               Index1 (name Utf8), Index2 (descriptor Utf8)
//	MethodHandle              Kind, Index1 (reference)
//	Dynamic, InvokeDynamic    Index1 (bootstrap method), Index2 (NameAndType)
type Constant struct {
	Tag    ConstantTag
	Utf8   string
	Int    int64
	Float  float64
	Index1 uint16
	Index2 uint16
	Kind   uint8
}

// ConstantPool is the read-only constant pool of a decoded class. Slot 0 and
// the slot following each Long or Double are unusable and hold a zero Constant.
type ConstantPool struct {
	entries []Constant
}

// NewConstantPool wraps entries, which must include the unused slot 0.
func NewConstantPool(entries []Constant) ConstantPool {
	return ConstantPool{entries: entries}
}

// Size returns the number of slots, matching constant_pool_count.
func (p ConstantPool) Size() int {
	return len(p.entries)
}

// Constant returns the entry at index i. It fails for slot 0, unusable slots,
// and out-of-range indexes.
func (p ConstantPool) Constant(i int) (Constant, error) {
	if i <= 0 || i >= len(p.entries) || p.entries[i].Tag == 0 {
		return Constant{}, fmt.Errorf("%w: %d", ErrConstantIndex, i)
	}
	return p.entries[i], nil
}

// ConstantOf returns the entry at index i and checks its tag.
func (p ConstantPool) ConstantOf(i int, tag ConstantTag) (Constant, error) {
	c, err := p.Constant(i)
	if err != nil {
		return Constant{}, err
	}
	if c.Tag != tag {
		return Constant{}, fmt.Errorf("%w: index %d is %s, want %s", ErrConstantTag, i, c.Tag, tag)
	}
	return c, nil
}

// Utf8 returns the string held by the Utf8 entry at index i.
func (p ConstantPool) Utf8(i int) (string, error) {
	c, err := p.ConstantOf(i, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Utf8, nil
}

// ClassName resolves the Class entry at index i to its dotted name.
func (p ConstantPool) ClassName(i int) (string, error) {
	c, err := p.ConstantOf(i, TagClass)
	if err != nil {
		return "", err
	}
	name, err := p.Utf8(int(c.Index1))
	if err != nil {
		return "", err
	}
	return InternalToBinaryName(name), nil
}

// Entries returns a copy of all slots, including slot 0.
func (p ConstantPool) Entries() []Constant {
	return slices.Clone(p.entries)
}

// ConstantPoolGen is a mutable constant pool used when generating code. It
// starts as a copy of a class's pool; additions never affect that class.
// Add methods return the index of an existing equal entry when there is one.
type ConstantPoolGen struct {
	entries []Constant
	utf8    map[string]int
	classes map[string]int
	natypes map[[2]int]int
	refs    map[refKey]int
}

type refKey struct {
	tag   ConstantTag
	class int
	nat   int
}

// NewConstantPoolGen copies pool into a new generation pool.
func NewConstantPoolGen(pool ConstantPool) *ConstantPoolGen {
	g := &ConstantPoolGen{
		entries: pool.Entries(),
		utf8:    make(map[string]int),
		classes: make(map[string]int),
		natypes: make(map[[2]int]int),
		refs:    make(map[refKey]int),
	}
	if len(g.entries) == 0 {
		g.entries = []Constant{{}}
	}
	for i, c := range g.entries {
		g.index(i, c)
	}
	return g
}

// index records the first occurrence of each lookup key.
func (g *ConstantPoolGen) index(i int, c Constant) {
	switch c.Tag {
	case TagUtf8:
		if _, ok := g.utf8[c.Utf8]; !ok {
			g.utf8[c.Utf8] = i
		}
	case TagClass:
		if int(c.Index1) < len(g.entries) && g.entries[c.Index1].Tag == TagUtf8 {
			name := g.entries[c.Index1].Utf8
			if _, ok := g.classes[name]; !ok {
				g.classes[name] = i
			}
		}
	case TagNameAndType:
		k := [2]int{int(c.Index1), int(c.Index2)}
		if _, ok := g.natypes[k]; !ok {
			g.natypes[k] = i
		}
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		k := refKey{c.Tag, int(c.Index1), int(c.Index2)}
		if _, ok := g.refs[k]; !ok {
			g.refs[k] = i
		}
	}
}

func (g *ConstantPoolGen) add(c Constant) int {
	i := len(g.entries)
	g.entries = append(g.entries, c)
	if c.Tag.Wide() {
		g.entries = append(g.entries, Constant{})
	}
	g.index(i, c)
	return i
}

// Size returns the current number of slots.
func (g *ConstantPoolGen) Size() int {
	return len(g.entries)
}

// Constant returns the entry at index i.
func (g *ConstantPoolGen) Constant(i int) (Constant, error) {
	return ConstantPool{entries: g.entries}.Constant(i)
}

// LookupUtf8 returns the index of s, or -1.
func (g *ConstantPoolGen) LookupUtf8(s string) int {
	if i, ok := g.utf8[s]; ok {
		return i
	}
	return -1
}

// AddUtf8 returns the index of a Utf8 entry holding s, adding one if needed.
func (g *ConstantPoolGen) AddUtf8(s string) int {
	if i := g.LookupUtf8(s); i >= 0 {
		return i
	}
	return g.add(Constant{Tag: TagUtf8, Utf8: s})
}

// LookupClass returns the index of the Class entry for the dotted or internal
// class name, or -1.
func (g *ConstantPoolGen) LookupClass(name string) int {
	if i, ok := g.classes[BinaryToInternalName(name)]; ok {
		return i
	}
	return -1
}

// AddClass returns the index of a Class entry for name, adding one if needed.
func (g *ConstantPoolGen) AddClass(name string) int {
	if i := g.LookupClass(name); i >= 0 {
		return i
	}
	nameIndex := g.AddUtf8(BinaryToInternalName(name))
	return g.add(Constant{Tag: TagClass, Index1: uint16(nameIndex)})
}

// AddNameAndType returns the index of a NameAndType entry, adding one if needed.
func (g *ConstantPoolGen) AddNameAndType(name, descriptor string) int {
	k := [2]int{g.AddUtf8(name), g.AddUtf8(descriptor)}
	if i, ok := g.natypes[k]; ok {
		return i
	}
	return g.add(Constant{Tag: TagNameAndType, Index1: uint16(k[0]), Index2: uint16(k[1])})
}

// AddMethodref returns the index of a Methodref entry, adding one if needed.
func (g *ConstantPoolGen) AddMethodref(class, name, descriptor string) int {
	return g.addRef(TagMethodref, class, name, descriptor)
}

// AddFieldref returns the index of a Fieldref entry, adding one if needed.
func (g *ConstantPoolGen) AddFieldref(class, name, descriptor string) int {
	return g.addRef(TagFieldref, class, name, descriptor)
}

func (g *ConstantPoolGen) addRef(tag ConstantTag, class, name, descriptor string) int {
	k := refKey{tag, g.AddClass(class), g.AddNameAndType(name, descriptor)}
	if i, ok := g.refs[k]; ok {
		return i
	}
	return g.add(Constant{Tag: tag, Index1: uint16(k.class), Index2: uint16(k.nat)})
}

// ConstantPool returns a read-only snapshot of the current entries.
func (g *ConstantPoolGen) ConstantPool() ConstantPool {
	return NewConstantPool(slices.Clone(g.entries))
}
