package types

import (
	"fmt"
	"io"
	"strings"
)

// Recognized container suffixes. Matching is case-sensitive.
const (
	ClassSuffix = ".class"
	JarSuffix   = ".jar"
	ZipSuffix   = ".zip"
)

// ContainerKind tells whether a path names one class unit or an archive.
type ContainerKind int

// Container kinds.
const (
	KindSingleUnit ContainerKind = iota + 1
	KindArchive
)

// String returns the lowercase name of the kind.
func (k ContainerKind) String() string {
	switch k {
	case KindSingleUnit:
		return "class"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// ContainerPath is an immutable source path together with the container kind
// derived from its suffix. Build one with ParseContainerPath.
type ContainerPath struct {
	Path string        // Path as supplied by the caller.
	Kind ContainerKind // Decided once from the suffix.
}

// ParseContainerPath classifies path by suffix: ".class" is a single unit,
// ".jar" and ".zip" are archives. Any other suffix returns an error wrapping
// ErrInvalidContainer. No I/O is performed.
func ParseContainerPath(path string) (ContainerPath, error) {
	switch {
	case strings.HasSuffix(path, JarSuffix), strings.HasSuffix(path, ZipSuffix):
		return ContainerPath{Path: path, Kind: KindArchive}, nil
	case strings.HasSuffix(path, ClassSuffix):
		return ContainerPath{Path: path, Kind: KindSingleUnit}, nil
	default:
		return ContainerPath{}, fmt.Errorf("%w: %q", ErrInvalidContainer, path)
	}
}

// IsArchive reports whether the container is a .jar or .zip archive.
func (p ContainerPath) IsArchive() bool {
	return p.Kind == KindArchive
}

// String returns the underlying path.
func (p ContainerPath) String() string {
	return p.Path
}

// MemberStream pairs a unit name with a way to open its bytes. For archive
// members Name is the entry path inside the archive; for a single unit it is
// the container path. The caller closes every reader returned by Open.
type MemberStream struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// IsClassUnit reports whether name carries the .class suffix.
func IsClassUnit(name string) bool {
	return strings.HasSuffix(name, ClassSuffix)
}
