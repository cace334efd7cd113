package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		desc     string
		wantArgs []string
		wantRet  string
		wantErr  bool
	}{
		{name: "no args void", desc: "()V", wantArgs: []string{}, wantRet: "void"},
		{name: "primitives", desc: "(IJZ)D", wantArgs: []string{"int", "long", "boolean"}, wantRet: "double"},
		{name: "main", desc: "([Ljava/lang/String;)V", wantArgs: []string{"java.lang.String[]"}, wantRet: "void"},
		{name: "object return", desc: "(B[[C)Ljava/util/List;", wantArgs: []string{"byte", "char[][]"}, wantRet: "java.util.List"},
		{name: "missing paren", desc: "V", wantErr: true},
		{name: "unterminated", desc: "(I", wantErr: true},
		{name: "missing return", desc: "(I)", wantErr: true},
		{name: "bad base type", desc: "(Q)V", wantErr: true},
		{name: "unterminated class", desc: "(Ljava/lang/String)V", wantErr: true},
		{name: "void argument", desc: "(V)V", wantErr: true},
		{name: "trailing characters", desc: "()VV", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, ret, err := ParseMethodDescriptor(tt.desc)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDescriptor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
			assert.Equal(t, tt.wantRet, ret)
		})
	}
}

func TestParseFieldDescriptor(t *testing.T) {
	typ, err := ParseFieldDescriptor("[Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String[]", typ)

	typ, err = ParseFieldDescriptor("J")
	require.NoError(t, err)
	assert.Equal(t, "long", typ)

	_, err = ParseFieldDescriptor("II")
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = ParseFieldDescriptor("")
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestMethodSignature(t *testing.T) {
	m := Method{
		AccessFlags: AccPublic | AccStatic,
		Name:        "main",
		Descriptor:  "([Ljava/lang/String;)V",
	}
	assert.Equal(t, "public static void main(java.lang.String[])", m.Signature())

	bad := Method{Name: "broken", Descriptor: "(("}
	assert.Equal(t, "broken((", bad.Signature())
}

func TestClassModifiers(t *testing.T) {
	assert.Equal(t, "public final class", (AccPublic | AccFinal | AccSynchronized).ClassModifiers())
	assert.Equal(t, "public interface", (AccPublic | AccInterface | AccAbstract).ClassModifiers())
	assert.Equal(t, "public abstract class", (AccPublic | AccAbstract).ClassModifiers())
}

func TestFieldModifiers(t *testing.T) {
	assert.Equal(t, "private static final", (AccPrivate | AccStatic | AccFinal).FieldModifiers())
	assert.Equal(t, "protected volatile transient", (AccProtected | AccVolatile | AccTransient).FieldModifiers())
	assert.Equal(t, "", AccSynthetic.FieldModifiers())
}
