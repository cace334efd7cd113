// Package container resolves a container path into the member streams that
// hold its class units.
package container

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/classreg/pkg/types"
)

// Members is the result of resolving a container. Streams are listed in
// container order. Close releases the archive handle, if any, and is safe to
// call more than once.
type Members struct {
	Streams []types.MemberStream
	closer  io.Closer
	closed  bool
}

// Close releases the resources held by the resolved container.
func (m *Members) Close() error {
	if m == nil {
		return nil
	}
	if m.closed || m.closer == nil {
		m.closed = true
		return nil
	}
	m.closed = true
	return m.closer.Close()
}

// Resolver turns a ContainerPath into member streams.
type Resolver struct {
	archives ArchiveReader
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithArchiveReader replaces the archive reader used for .jar and .zip files.
func WithArchiveReader(ar ArchiveReader) Option {
	return func(r *Resolver) {
		r.archives = ar
	}
}

// NewResolver returns a Resolver that reads archives with ZipArchiveReader
// unless an option says otherwise.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{archives: ZipArchiveReader{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve lists the class units of cp. An archive yields one stream per
// entry whose name ends in ".class", in archive order; an archive without
// such entries yields none. A single unit yields exactly one stream named
// after the path. The caller must Close the result once the streams are
// consumed.
func (r *Resolver) Resolve(cp types.ContainerPath) (*Members, error) {
	switch cp.Kind {
	case types.KindArchive:
		return r.resolveArchive(cp.Path)
	case types.KindSingleUnit:
		return &Members{Streams: []types.MemberStream{UnitStream(cp.Path)}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidContainer, cp.Path)
	}
}

func (r *Resolver) resolveArchive(path string) (*Members, error) {
	entries, closer, err := r.archives.OpenEntries(path)
	if err != nil {
		return nil, &types.ContainerIOError{Path: path, Op: "open", Err: err}
	}

	var streams []types.MemberStream
	for _, e := range entries {
		if strings.HasSuffix(e.Name, "/") || !types.IsClassUnit(e.Name) {
			continue
		}
		streams = append(streams, memberStream(path, e))
	}
	return &Members{Streams: streams, closer: closer}, nil
}

// memberStream wraps an archive entry so open failures carry the
// "archive!entry" location.
func memberStream(archive string, e ArchiveEntry) types.MemberStream {
	open := e.Open
	return types.MemberStream{
		Name: e.Name,
		Open: func() (io.ReadCloser, error) {
			rc, err := open()
			if err != nil {
				return nil, &types.ContainerIOError{Path: archive + "!" + e.Name, Op: "open", Err: err}
			}
			return rc, nil
		},
	}
}

// UnitStream returns the stream for a single class file on disk. The file is
// opened lazily by Open.
func UnitStream(path string) types.MemberStream {
	return types.MemberStream{
		Name: path,
		Open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, &types.ContainerIOError{Path: path, Op: "open", Err: err}
			}
			return f, nil
		},
	}
}
