package sqlite

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/classreg/internal/classfile/classfiletest"
	"github.com/mesh-intelligence/classreg/internal/registry"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

func attachedStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewStore()
	require.NoError(t, s.Attach(types.Config{DataDir: dir}))
	t.Cleanup(func() { s.Detach() })
	return s, dir
}

func sampleArchive(t *testing.T) string {
	t.Helper()
	return classfiletest.WriteArchive(t, t.TempDir(), "app.jar",
		classfiletest.ClassEntry(classfiletest.Class{
			Name:       "com.x.A",
			Interfaces: []string{"java.lang.Runnable"},
			SourceFile: "A.java",
			Methods: []classfiletest.Method{
				{Name: "<init>", Descriptor: "()V", Access: 0x0001},
				{Name: "run", Descriptor: "()V", Access: 0x0001},
			},
		}),
		classfiletest.ClassEntry(classfiletest.Class{
			Name: "com.x.B",
			Methods: []classfiletest.Method{
				{Name: "run", Descriptor: "(I)J", Access: 0x0009, Code: []byte{0x09, 0xAD}, MaxStack: 2, MaxLocals: 1},
			},
		}),
	)
}

func newRegistry(t *testing.T, path string) types.Registry {
	t.Helper()
	reg, err := registry.New(path)
	require.NoError(t, err)
	return reg
}

func TestAttach(t *testing.T) {
	t.Run("creates data dir and database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "db")
		s := NewStore()
		require.NoError(t, s.Attach(types.Config{DataDir: dir}))
		defer s.Detach()

		_, err := os.Stat(filepath.Join(dir, DBFileName))
		assert.NoError(t, err)
	})

	t.Run("second attach fails", func(t *testing.T) {
		s, dir := attachedStore(t)
		assert.ErrorIs(t, s.Attach(types.Config{DataDir: dir}), types.ErrAlreadyAttached)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		s := NewStore()
		err := s.Attach(types.Config{DataDir: t.TempDir(), LogLevel: "loud"})
		assert.ErrorIs(t, err, types.ErrLogLevelUnknown)
	})

	t.Run("reattach keeps existing scans", func(t *testing.T) {
		dir := t.TempDir()
		s := NewStore()
		require.NoError(t, s.Attach(types.Config{DataDir: dir}))
		_, err := s.Index(newRegistry(t, sampleArchive(t)))
		require.NoError(t, err)
		require.NoError(t, s.Detach())

		s2 := NewStore()
		require.NoError(t, s2.Attach(types.Config{DataDir: dir}))
		defer s2.Detach()
		scans, err := s2.Scans()
		require.NoError(t, err)
		assert.Len(t, scans, 1)
	})
}

func TestDetachedOperations(t *testing.T) {
	s := NewStore()
	assert.NoError(t, s.Detach(), "detach before attach is a no-op")

	_, err := s.Index(newRegistry(t, sampleArchive(t)))
	assert.ErrorIs(t, err, types.ErrIndexDetached)
	_, err = s.Scans()
	assert.ErrorIs(t, err, types.ErrIndexDetached)
	_, err = s.Classes("x")
	assert.ErrorIs(t, err, types.ErrIndexDetached)
	_, err = s.FindMethods("run")
	assert.ErrorIs(t, err, types.ErrIndexDetached)
	assert.ErrorIs(t, s.ExportJSONL("x", filepath.Join(t.TempDir(), "out.jsonl")), types.ErrIndexDetached)
}

func TestIndex(t *testing.T) {
	s, _ := attachedStore(t)
	path := sampleArchive(t)

	scan, err := s.Index(newRegistry(t, path))
	require.NoError(t, err)
	assert.NotEmpty(t, scan.ScanID)
	assert.Equal(t, path, scan.Container)
	assert.Equal(t, "archive", scan.Kind)
	assert.Equal(t, 2, scan.ClassCount)
	assert.Equal(t, 3, scan.MethodCount)

	classes, err := s.Classes(scan.ScanID)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	a := classes[0]
	assert.Equal(t, 0, a.Ordinal)
	assert.Equal(t, "com.x.A", a.ClassName)
	assert.Equal(t, "com/x/A.class", a.UnitName)
	assert.Equal(t, "java.lang.Object", a.SuperclassName)
	assert.Equal(t, []string{"java.lang.Runnable"}, a.Interfaces)
	assert.Equal(t, "A.java", a.SourceFile)
	assert.Equal(t, uint16(52), a.MajorVersion)
	assert.Equal(t, 2, a.MethodCount)

	b := classes[1]
	assert.Equal(t, 1, b.Ordinal)
	assert.Equal(t, "com.x.B", b.ClassName)
	assert.Nil(t, b.Interfaces)
	assert.Empty(t, b.SourceFile)
}

func TestIndexDecodeFailureWritesNothing(t *testing.T) {
	s, _ := attachedStore(t)
	path := classfiletest.WriteArchive(t, t.TempDir(), "bad.jar",
		classfiletest.Entry{Name: "com/x/Bad.class", Data: []byte{0xCA, 0xFE}})

	_, err := s.Index(newRegistry(t, path))
	var decodeErr *types.DecodeError
	require.ErrorAs(t, err, &decodeErr)

	scans, err := s.Scans()
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestScansNewestFirst(t *testing.T) {
	s, _ := attachedStore(t)
	path := sampleArchive(t)

	first, err := s.Index(newRegistry(t, path))
	require.NoError(t, err)
	second, err := s.Index(newRegistry(t, path))
	require.NoError(t, err)

	scans, err := s.Scans()
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, second.ScanID, scans[0].ScanID)
	assert.Equal(t, first.ScanID, scans[1].ScanID)
	assert.False(t, scans[0].CreatedAt.Before(scans[1].CreatedAt))
}

func TestClassesUnknownScan(t *testing.T) {
	s, _ := attachedStore(t)
	_, err := s.Classes("no-such-scan")
	assert.ErrorIs(t, err, types.ErrScanNotFound)
}

func TestFindMethods(t *testing.T) {
	s, _ := attachedStore(t)
	path := sampleArchive(t)
	scan, err := s.Index(newRegistry(t, path))
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		wantCount  int
		wantFirst  string
		wantLength int
	}{
		{name: "name in two classes", method: "run", wantCount: 2, wantFirst: "public void run()", wantLength: 1},
		{name: "constructor", method: "<init>", wantCount: 1, wantFirst: "public void <init>()", wantLength: 1},
		{name: "missing", method: "absent", wantCount: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindMethods(tt.method)
			require.NoError(t, err)
			require.Len(t, got, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			assert.Equal(t, scan.ScanID, got[0].ScanID)
			assert.Equal(t, path, got[0].Container)
			assert.Equal(t, "com.x.A", got[0].ClassName)
			assert.Equal(t, tt.wantFirst, got[0].Signature)
			assert.Equal(t, tt.wantLength, got[0].CodeLength)
		})
	}

	got, err := s.FindMethods("run")
	require.NoError(t, err)
	assert.Equal(t, "com.x.B", got[1].ClassName)
	assert.Equal(t, "(I)J", got[1].Descriptor)
	assert.Equal(t, uint16(0x0009), got[1].AccessFlags)
	assert.Equal(t, 2, got[1].CodeLength)
}

func TestExportJSONL(t *testing.T) {
	s, _ := attachedStore(t)
	scan, err := s.Index(newRegistry(t, sampleArchive(t)))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "classes.jsonl")
	require.NoError(t, os.WriteFile(out, []byte("stale\n"), 0o644))
	require.NoError(t, s.ExportJSONL(scan.ScanID, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var c types.IndexedClass
		require.NoError(t, json.Unmarshal(sc.Bytes(), &c))
		assert.Equal(t, scan.ScanID, c.ScanID)
		names = append(names, c.ClassName)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"com.x.A", "com.x.B"}, names)

	t.Run("unknown scan leaves file alone", func(t *testing.T) {
		err := s.ExportJSONL("missing", out)
		assert.ErrorIs(t, err, types.ErrScanNotFound)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "com.x.A")
	})
}
