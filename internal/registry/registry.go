// Package registry implements the class registry: a lazily populated,
// name-indexed cache over the classes of one container.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/classreg/internal/classfile"
	"github.com/mesh-intelligence/classreg/internal/container"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// MemberResolver lists the member streams of a container.
type MemberResolver interface {
	Resolve(cp types.ContainerPath) (*container.Members, error)
}

// Registry implements types.Registry. The first lookup decodes the whole
// container; later lookups reuse the result. Population is serialized, so
// concurrent first callers trigger a single decode pass and observe the same
// classes.
type Registry struct {
	path     types.ContainerPath
	resolver MemberResolver
	decoder  types.Decoder
	logger   zerolog.Logger

	mu      sync.Mutex
	loaded  bool
	classes []*types.JavaClass
}

var _ types.Registry = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithResolver replaces the container resolver.
func WithResolver(r MemberResolver) Option {
	return func(reg *Registry) {
		reg.resolver = r
	}
}

// WithDecoder replaces the class decoder.
func WithDecoder(d types.Decoder) Option {
	return func(reg *Registry) {
		reg.decoder = d
	}
}

// WithLogger sets the logger used to report population.
func WithLogger(l zerolog.Logger) Option {
	return func(reg *Registry) {
		reg.logger = l
	}
}

// New returns a registry for the container at path. The container kind is
// fixed here; an unsupported suffix fails with types.ErrInvalidContainer
// before any I/O. Nothing is read until the first lookup.
func New(path string, opts ...Option) (*Registry, error) {
	cp, err := types.ParseContainerPath(path)
	if err != nil {
		return nil, err
	}
	reg := &Registry{
		path:     cp,
		resolver: container.NewResolver(),
		decoder:  classfile.NewDecoder(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg, nil
}

// Path returns the container the registry was built for.
func (r *Registry) Path() types.ContainerPath {
	return r.path
}

// Loaded reports whether the classes have been decoded.
func (r *Registry) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// AllClasses returns every class in container order, decoding the container
// on first use. A failed decode leaves the registry unpopulated so a later
// call tries again; a successful one is never repeated. The returned slice is
// a copy, but the classes it points to are the cached values and must be
// treated as read-only. Use ClassGenOf for a copy that can be changed.
func (r *Registry) AllClasses() ([]*types.JavaClass, error) {
	classes, err := r.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(classes), nil
}

// load populates the cache once and returns it without copying.
func (r *Registry) load() ([]*types.JavaClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.classes, nil
	}

	start := time.Now()
	classes, err := r.decodeAll()
	if err != nil {
		r.logger.Debug().Err(err).Str("container", r.path.Path).Msg("populate registry failed")
		return nil, err
	}
	r.classes = classes
	r.loaded = true
	r.logger.Debug().
		Str("container", r.path.Path).
		Stringer("kind", r.path.Kind).
		Int("classes", len(classes)).
		Dur("elapsed", time.Since(start)).
		Msg("registry populated")
	return r.classes, nil
}

// decodeAll resolves the container and decodes every member. Archive members
// are decoded when present; otherwise a single-unit path is decoded directly.
// The resolved container is closed on every return path.
func (r *Registry) decodeAll() ([]*types.JavaClass, error) {
	members, err := r.resolver.Resolve(r.path)
	if err != nil {
		return nil, err
	}
	defer members.Close()

	var streams []types.MemberStream
	if members != nil {
		streams = members.Streams
	}
	if len(streams) == 0 && r.path.Kind == types.KindSingleUnit {
		streams = []types.MemberStream{container.UnitStream(r.path.Path)}
	}
	r.logger.Debug().Str("container", r.path.Path).Int("members", len(streams)).Msg("decoding members")

	classes := make([]*types.JavaClass, 0, len(streams))
	for _, s := range streams {
		cls, err := r.decodeMember(s)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

// decodeMember reads one member fully, closes it, and decodes the bytes.
// Read and close failures are I/O errors; decoder failures are DecodeErrors.
func (r *Registry) decodeMember(s types.MemberStream) (*types.JavaClass, error) {
	rc, err := s.Open()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, &types.ContainerIOError{Path: s.Name, Op: "read", Err: err}
	}
	if closeErr != nil {
		return nil, &types.ContainerIOError{Path: s.Name, Op: "close", Err: closeErr}
	}

	cls, err := r.decoder.Decode(bytes.NewReader(data), s.Name)
	if err != nil {
		return nil, &types.DecodeError{Member: s.Name, Err: err}
	}
	return cls, nil
}

// ClassByName returns the first class whose fully qualified name equals name.
// The class is the cached value and must be treated as read-only.
func (r *Registry) ClassByName(name string) (*types.JavaClass, error) {
	classes, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if c.ClassName == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", types.ErrClassNotFound, name)
}

// ClassGenOf returns a generation view of the named class with its own copy
// of the constant pool.
func (r *Registry) ClassGenOf(name string) (*types.ClassGen, error) {
	cls, err := r.ClassByName(name)
	if err != nil {
		return nil, err
	}
	return types.NewClassGen(cls), nil
}

// MethodsOf returns the named class's methods in declaration order.
func (r *Registry) MethodsOf(name string) ([]types.Method, error) {
	cls, err := r.ClassByName(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cls.Methods), nil
}

// AllMethods returns the methods of every class, classes in container order
// and methods in declaration order.
func (r *Registry) AllMethods() ([]types.Method, error) {
	classes, err := r.load()
	if err != nil {
		return nil, err
	}
	var methods []types.Method
	for _, c := range classes {
		ms, err := r.MethodsOf(c.ClassName)
		if err != nil {
			mustFind(c.ClassName, err)
			return nil, err
		}
		methods = append(methods, ms...)
	}
	return methods, nil
}

// MethodGensOf binds each method of the named class to one constant pool
// generated for that class. Every returned handle shares the pool.
func (r *Registry) MethodGensOf(name string) ([]*types.MethodGen, error) {
	cg, err := r.ClassGenOf(name)
	if err != nil {
		return nil, err
	}
	return cg.MethodGens()
}

// AllMethodGens returns MethodGensOf for every class in container order.
// Handles of different classes never share a pool.
func (r *Registry) AllMethodGens() ([]*types.MethodGen, error) {
	classes, err := r.load()
	if err != nil {
		return nil, err
	}
	var gens []*types.MethodGen
	for _, c := range classes {
		gs, err := r.MethodGensOf(c.ClassName)
		if err != nil {
			mustFind(c.ClassName, err)
			return nil, err
		}
		gens = append(gens, gs...)
	}
	return gens, nil
}

// mustFind panics if err reports that an enumerated class could not be
// found by name. Any other error is left to the caller.
func mustFind(name string, err error) {
	if errors.Is(err, types.ErrClassNotFound) {
		panic(&types.InconsistencyError{ClassName: name, Err: err})
	}
}
