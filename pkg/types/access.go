package types

import "strings"

// AccessFlags is the access_flags bit set of a class, field, or method.
type AccessFlags uint16

// Access flag bits. Some bits carry a different meaning depending on whether
// they appear on a class, a field, or a method.
const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020 // methods; ACC_SUPER on classes
	AccVolatile     AccessFlags = 0x0040 // fields; ACC_BRIDGE on methods
	AccTransient    AccessFlags = 0x0080 // fields; ACC_VARARGS on methods
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
)

// Has reports whether every bit in f is set.
func (a AccessFlags) Has(f AccessFlags) bool {
	return a&f == f
}

// modifierOrder lists the flags rendered as Java source modifiers, in the
// order javac prints them.
var modifierOrder = []struct {
	flag AccessFlags
	word string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccNative, "native"},
	{AccAbstract, "abstract"},
}

// MethodModifiers renders the flags as method modifiers, for example
// "public static final".
func (a AccessFlags) MethodModifiers() string {
	var words []string
	for _, m := range modifierOrder {
		if a.Has(m.flag) {
			words = append(words, m.word)
		}
	}
	return strings.Join(words, " ")
}

// FieldModifiers renders the flags as field modifiers, for example
// "private static volatile".
func (a AccessFlags) FieldModifiers() string {
	var words []string
	for _, m := range modifierOrder[:5] {
		if a.Has(m.flag) {
			words = append(words, m.word)
		}
	}
	if a.Has(AccVolatile) {
		words = append(words, "volatile")
	}
	if a.Has(AccTransient) {
		words = append(words, "transient")
	}
	return strings.Join(words, " ")
}

// ClassModifiers renders the flags as class modifiers. ACC_SUPER and
// ACC_SYNCHRONIZED share a bit, so synchronized is never printed here.
func (a AccessFlags) ClassModifiers() string {
	var words []string
	for _, m := range modifierOrder {
		if m.flag == AccSynchronized || m.flag == AccNative {
			continue
		}
		if m.flag == AccAbstract && a.Has(AccInterface) {
			continue
		}
		if a.Has(m.flag) {
			words = append(words, m.word)
		}
	}
	switch {
	case a.Has(AccAnnotation):
		words = append(words, "@interface")
	case a.Has(AccInterface):
		words = append(words, "interface")
	case a.Has(AccEnum):
		words = append(words, "enum")
	default:
		words = append(words, "class")
	}
	return strings.Join(words, " ")
}
