package container

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/classreg/internal/classfile/classfiletest"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// fakeArchive is an in-memory ArchiveReader that records opens and closes.
type fakeArchive struct {
	entries []ArchiveEntry
	err     error
	opens   int
	closes  int
}

func (f *fakeArchive) OpenEntries(path string) ([]ArchiveEntry, io.Closer, error) {
	f.opens++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.entries, closerFunc(func() error { f.closes++; return nil }), nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func textEntry(name, body string) ArchiveEntry {
	return ArchiveEntry{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}}
}

func streamNames(streams []types.MemberStream) []string {
	names := make([]string, len(streams))
	for i, s := range streams {
		names[i] = s.Name
	}
	return names
}

func TestResolveArchiveFiltersClassEntries(t *testing.T) {
	dir := t.TempDir()
	a := classfiletest.Class{Name: "com.x.A"}
	b := classfiletest.Class{Name: "com.x.B"}
	path := classfiletest.WriteArchive(t, dir, "lib.jar",
		classfiletest.Entry{Name: "a.txt", Data: []byte("not a class")},
		classfiletest.ClassEntry(a),
		classfiletest.Entry{Name: "META-INF/MANIFEST.MF", Data: []byte("Manifest-Version: 1.0\n")},
		classfiletest.ClassEntry(b),
	)
	cp, err := types.ParseContainerPath(path)
	require.NoError(t, err)

	members, err := NewResolver().Resolve(cp)
	require.NoError(t, err)
	defer members.Close()

	assert.Equal(t, []string{"com/x/A.class", "com/x/B.class"}, streamNames(members.Streams))

	rc, err := members.Streams[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, b.Bytes(), data)
}

func TestResolveArchiveWithoutClassesIsEmpty(t *testing.T) {
	path := classfiletest.WriteArchive(t, t.TempDir(), "docs.zip",
		classfiletest.Entry{Name: "README", Data: []byte("hi")},
		classfiletest.Entry{Name: "dir.class/", Data: nil},
	)
	cp, err := types.ParseContainerPath(path)
	require.NoError(t, err)

	members, err := NewResolver().Resolve(cp)
	require.NoError(t, err)
	assert.Empty(t, members.Streams)
	assert.NoError(t, members.Close())
}

func TestResolveSingleUnit(t *testing.T) {
	path := classfiletest.WriteClass(t, t.TempDir(), "Foo.class", classfiletest.Class{Name: "Foo"})
	cp, err := types.ParseContainerPath(path)
	require.NoError(t, err)

	members, err := NewResolver().Resolve(cp)
	require.NoError(t, err)
	require.Len(t, members.Streams, 1)
	assert.Equal(t, path, members.Streams[0].Name)
	assert.NoError(t, members.Close())
}

func TestResolvePreservesOrderAndClosesArchive(t *testing.T) {
	fake := &fakeArchive{entries: []ArchiveEntry{
		textEntry("z/Z.class", "z"),
		textEntry("a.txt", "a"),
		textEntry("a/A.class", "a"),
		textEntry("m/M.class", "m"),
	}}
	r := NewResolver(WithArchiveReader(fake))

	members, err := r.Resolve(types.ContainerPath{Path: "lib.jar", Kind: types.KindArchive})
	require.NoError(t, err)
	assert.Equal(t, []string{"z/Z.class", "a/A.class", "m/M.class"}, streamNames(members.Streams))

	require.NoError(t, members.Close())
	require.NoError(t, members.Close())
	assert.Equal(t, 1, fake.opens)
	assert.Equal(t, 1, fake.closes, "second Close is a no-op")
}

func TestResolveMissingArchive(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.jar")
	_, err := NewResolver().Resolve(types.ContainerPath{Path: missing, Kind: types.KindArchive})
	require.Error(t, err)

	var ioErr *types.ContainerIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, missing, ioErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveCorruptArchive(t *testing.T) {
	path := classfiletest.WriteFile(t, t.TempDir(), "broken.zip", []byte("this is not a zip"))
	_, err := NewResolver().Resolve(types.ContainerPath{Path: path, Kind: types.KindArchive})

	var ioErr *types.ContainerIOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestMissingUnitFailsOnOpen(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "Gone.class")
	s := UnitStream(missing)
	assert.Equal(t, missing, s.Name)

	_, err := s.Open()
	var ioErr *types.ContainerIOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEntryOpenFailureCarriesLocation(t *testing.T) {
	boom := errors.New("unsupported compression")
	fake := &fakeArchive{entries: []ArchiveEntry{{
		Name: "com/x/A.class",
		Open: func() (io.ReadCloser, error) { return nil, boom },
	}}}

	members, err := NewResolver(WithArchiveReader(fake)).Resolve(types.ContainerPath{Path: "lib.jar", Kind: types.KindArchive})
	require.NoError(t, err)
	defer members.Close()

	_, err = members.Streams[0].Open()
	var ioErr *types.ContainerIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "lib.jar!com/x/A.class", ioErr.Path)
	assert.ErrorIs(t, err, boom)
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	fake := &fakeArchive{}
	_, err := NewResolver(WithArchiveReader(fake)).Resolve(types.ContainerPath{Path: "data.txt"})
	assert.ErrorIs(t, err, types.ErrInvalidContainer)
	assert.Zero(t, fake.opens, "no archive I/O for an invalid container")
}

func TestNilMembersClose(t *testing.T) {
	var members *Members
	assert.NoError(t, members.Close())
}
