package classfile_test

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/classreg/internal/classfile"
	"github.com/mesh-intelligence/classreg/internal/classfile/classfiletest"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

func sampleClass() classfiletest.Class {
	return classfiletest.Class{
		Name:       "com.x.A",
		Interfaces: []string{"java.lang.Runnable", "java.io.Serializable"},
		SourceFile: "A.java",
		Fields: []classfiletest.Field{
			{Name: "count", Descriptor: "I", Access: 0x0002},
			{Name: "names", Descriptor: "[Ljava/lang/String;", Access: 0x0001},
		},
		Methods: []classfiletest.Method{
			{Name: "<init>", Descriptor: "()V", Access: 0x0001, Code: []byte{0x2a, 0xb7, 0x00, 0x01, 0xb1}, MaxStack: 1, MaxLocals: 1},
			{Name: "run", Descriptor: "()V", Access: 0x0001},
			{Name: "sum", Descriptor: "(IJ)J", Access: 0x0009, MaxStack: 4, MaxLocals: 3},
		},
		Longs: []int64{42, -7},
	}
}

func TestDecodeClass(t *testing.T) {
	data := sampleClass().Bytes()

	cls, err := classfile.NewDecoder().Decode(bytes.NewReader(data), "com/x/A.class")
	require.NoError(t, err)

	assert.Equal(t, "com/x/A.class", cls.UnitName)
	assert.Equal(t, "com.x.A", cls.ClassName)
	assert.Equal(t, "java.lang.Object", cls.SuperclassName)
	assert.Equal(t, []string{"java.lang.Runnable", "java.io.Serializable"}, cls.Interfaces)
	assert.Equal(t, uint16(52), cls.MajorVersion)
	assert.Equal(t, "A.java", cls.SourceFile)
	assert.True(t, cls.AccessFlags.Has(types.AccPublic))

	require.Len(t, cls.Fields, 2)
	assert.Equal(t, "count", cls.Fields[0].Name)
	assert.Equal(t, "[Ljava/lang/String;", cls.Fields[1].Descriptor)

	require.Len(t, cls.Methods, 3)
	names := []string{cls.Methods[0].Name, cls.Methods[1].Name, cls.Methods[2].Name}
	assert.Equal(t, []string{"<init>", "run", "sum"}, names, "declaration order is preserved")

	require.NotNil(t, cls.Methods[0].Code)
	assert.Equal(t, []byte{0x2a, 0xb7, 0x00, 0x01, 0xb1}, cls.Methods[0].Code.Bytecode)
	assert.Equal(t, uint16(1), cls.Methods[0].Code.MaxStack)
	assert.Equal(t, uint16(4), cls.Methods[2].Code.MaxStack)
	assert.Equal(t, uint16(3), cls.Methods[2].Code.MaxLocals)
}

func TestDecodeWideConstants(t *testing.T) {
	cls, err := classfile.NewDecoder().DecodeBytes(sampleClass().Bytes(), "A.class")
	require.NoError(t, err)

	var longs []int64
	var doubles []float64
	for _, c := range cls.ConstantPool.Entries() {
		switch c.Tag {
		case types.TagLong:
			longs = append(longs, c.Int)
		case types.TagDouble:
			doubles = append(doubles, c.Float)
		}
	}
	assert.Equal(t, []int64{42, -7}, longs)
	assert.Equal(t, []float64{0.5}, doubles)
}

func TestDecodeAbstractMethodHasNoCode(t *testing.T) {
	c := classfiletest.Class{
		Name:   "com.x.Shape",
		Access: 0x0601,
		Methods: []classfiletest.Method{
			{Name: "area", Descriptor: "()D", Access: 0x0001, Abstract: true},
		},
	}
	cls, err := classfile.NewDecoder().DecodeBytes(c.Bytes(), "com/x/Shape.class")
	require.NoError(t, err)
	require.Len(t, cls.Methods, 1)
	assert.Nil(t, cls.Methods[0].Code)
	assert.True(t, cls.IsInterface())
}

func TestDecodeObjectHasNoSuperclass(t *testing.T) {
	c := classfiletest.Class{Name: "java.lang.Object", Super: "-"}
	cls, err := classfile.NewDecoder().DecodeBytes(c.Bytes(), "java/lang/Object.class")
	require.NoError(t, err)
	assert.Equal(t, "", cls.SuperclassName)
}

func TestDecodeUnicodeNames(t *testing.T) {
	c := classfiletest.Class{
		Name: "com.x.Café",
		Methods: []classfiletest.Method{
			{Name: "emoji\U0001F600", Descriptor: "()V", Access: 0x0001},
		},
	}
	cls, err := classfile.NewDecoder().DecodeBytes(c.Bytes(), "u.class")
	require.NoError(t, err)
	assert.Equal(t, "com.x.Café", cls.ClassName)
	assert.Equal(t, "emoji\U0001F600", cls.Methods[0].Name)
}

func TestDecodeMalformed(t *testing.T) {
	valid := sampleClass().Bytes()

	badMagic := append([]byte{}, valid...)
	badMagic[0] = 0xCB

	oldVersion := append([]byte{}, valid...)
	oldVersion[6], oldVersion[7] = 0, 44

	badThis := classfiletest.Class{Name: "com.x.A"}.Bytes()
	// this_class sits right after the pool; point it at the Utf8 entry #1.
	thisOffset := len(badThis) - 2 - 2 - 2 - 2 - 2 - 2
	badThis[thisOffset], badThis[thisOffset+1] = 0, 1

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty input", data: nil},
		{name: "bad magic", data: badMagic},
		{name: "major version too old", data: oldVersion},
		{name: "truncated", data: valid[:len(valid)/2]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0x00)},
		{name: "this_class points at Utf8", data: badThis},
		{name: "text file", data: []byte("hello, world\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classfile.NewDecoder().DecodeBytes(tt.data, "bad.class")
			require.Error(t, err)
			assert.ErrorIs(t, err, classfile.ErrMalformed)
		})
	}
}

func TestDecodeReportsReadErrors(t *testing.T) {
	readErr := errors.New("disk on fire")
	_, err := classfile.NewDecoder().Decode(iotest.ErrReader(readErr), "A.class")
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, classfile.ErrMalformed)
}
