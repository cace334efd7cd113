package classreg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/classreg/internal/classfile/classfiletest"
	"github.com/mesh-intelligence/classreg/pkg/classreg"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

func TestNewRegistry(t *testing.T) {
	path := classfiletest.WriteArchive(t, t.TempDir(), "app.jar",
		classfiletest.ClassEntry(classfiletest.Class{
			Name:    "com.example.Main",
			Methods: []classfiletest.Method{{Name: "main", Descriptor: "([Ljava/lang/String;)V", Access: 0x0009}},
		}),
	)

	reg, err := classreg.NewRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, path, reg.Path().Path)

	methods, err := reg.MethodsOf("com.example.Main")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "public static void main(java.lang.String[])", methods[0].Signature())
}

func TestNewRegistryRejectsUnknownSuffix(t *testing.T) {
	reg, err := classreg.NewRegistry("notes.txt")
	assert.Nil(t, reg)
	assert.ErrorIs(t, err, types.ErrInvalidContainer)
}
