package types

import (
	"fmt"
	"strings"
)

// baseTypes maps primitive descriptor characters to Java type names.
var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// ParseFieldDescriptor converts a field descriptor such as
// "[Ljava/lang/String;" into its source form "java.lang.String[]".
func ParseFieldDescriptor(desc string) (string, error) {
	typ, n, err := parseFieldType(desc, 0)
	if err != nil {
		return "", err
	}
	if n != len(desc) {
		return "", fmt.Errorf("%w: trailing characters in %q", ErrInvalidDescriptor, desc)
	}
	return typ, nil
}

// ParseMethodDescriptor splits a method descriptor such as
// "(I[JLjava/lang/String;)V" into argument types
// ["int", "long[]", "java.lang.String"] and return type "void".
func ParseMethodDescriptor(desc string) (args []string, ret string, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, "", fmt.Errorf("%w: %q does not start with '('", ErrInvalidDescriptor, desc)
	}
	i := 1
	args = []string{}
	for {
		if i >= len(desc) {
			return nil, "", fmt.Errorf("%w: unterminated parameter list in %q", ErrInvalidDescriptor, desc)
		}
		if desc[i] == ')' {
			i++
			break
		}
		typ, next, err := parseFieldType(desc, i)
		if err != nil {
			return nil, "", err
		}
		args = append(args, typ)
		i = next
	}
	if i < len(desc) && desc[i] == 'V' && i+1 == len(desc) {
		return args, "void", nil
	}
	ret, next, err := parseFieldType(desc, i)
	if err != nil {
		return nil, "", err
	}
	if next != len(desc) {
		return nil, "", fmt.Errorf("%w: trailing characters in %q", ErrInvalidDescriptor, desc)
	}
	return args, ret, nil
}

// parseFieldType reads one field type starting at desc[i] and returns its
// source form and the index just past it.
func parseFieldType(desc string, i int) (string, int, error) {
	dims := 0
	for i < len(desc) && desc[i] == '[' {
		dims++
		i++
	}
	if dims > 255 {
		return "", 0, fmt.Errorf("%w: more than 255 array dimensions in %q", ErrInvalidDescriptor, desc)
	}
	if i >= len(desc) {
		return "", 0, fmt.Errorf("%w: truncated %q", ErrInvalidDescriptor, desc)
	}

	var base string
	switch c := desc[i]; c {
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end <= 1 {
			return "", 0, fmt.Errorf("%w: bad class type in %q", ErrInvalidDescriptor, desc)
		}
		base = InternalToBinaryName(desc[i+1 : i+end])
		i += end + 1
	default:
		name, ok := baseTypes[c]
		if !ok {
			return "", 0, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidDescriptor, c, desc)
		}
		base = name
		i++
	}
	return base + strings.Repeat("[]", dims), i, nil
}

// InternalToBinaryName converts a JVM internal name (com/x/A) to its dotted
// form (com.x.A).
func InternalToBinaryName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// BinaryToInternalName converts a dotted class name to its internal form.
func BinaryToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func formatSignature(flags AccessFlags, name string, args []string, ret string) string {
	var b strings.Builder
	if mods := flags.MethodModifiers(); mods != "" {
		b.WriteString(mods)
		b.WriteByte(' ')
	}
	b.WriteString(ret)
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')
	return b.String()
}
