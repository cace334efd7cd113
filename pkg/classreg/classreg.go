// Package classreg provides the public API for building class registries.
// It exposes the factory while keeping the implementation internal.
//
// Example:
//
//	reg, err := classreg.NewRegistry("lib/app.jar")
//	if err != nil {
//	    return err
//	}
//	methods, err := reg.MethodsOf("com.example.Main")
package classreg

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/classreg/internal/registry"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// Version is the release version of classreg.
const Version = "0.3.0"

// Option configures a registry built by NewRegistry.
type Option = registry.Option

// WithDecoder replaces the default class file decoder.
func WithDecoder(d types.Decoder) Option {
	return registry.WithDecoder(d)
}

// WithLogger sets the logger used to report population.
func WithLogger(l zerolog.Logger) Option {
	return registry.WithLogger(l)
}

// NewRegistry returns a registry over the .class, .jar or .zip file at path.
// It returns an error wrapping types.ErrInvalidContainer for any other
// suffix. Classes are decoded on the first lookup.
func NewRegistry(path string, opts ...Option) (types.Registry, error) {
	reg, err := registry.New(path, opts...)
	if err != nil {
		return nil, err
	}
	return reg, nil
}
