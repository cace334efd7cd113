package types

import "io"

// Decoder turns the bytes of one class unit into a JavaClass. unitName is
// recorded on the result and used in error messages. Decode fails if the
// bytes are not a well-formed class unit.
type Decoder interface {
	Decode(r io.Reader, unitName string) (*JavaClass, error)
}

// Registry gives name-indexed access to the classes held by one container.
// Classes are decoded on first use and cached for the registry's lifetime.
type Registry interface {
	// Path returns the container the registry was built for.
	Path() ContainerPath

	// AllClasses decodes the container on first call and returns the cached
	// classes in container order. An archive without class entries yields an
	// empty slice and no error. The classes are shared and read-only.
	AllClasses() ([]*JavaClass, error)

	// ClassByName returns the first class whose fully qualified name equals
	// name. Returns ErrClassNotFound if there is none.
	ClassByName(name string) (*JavaClass, error)

	// ClassGenOf returns a generation view of the named class.
	ClassGenOf(name string) (*ClassGen, error)

	// MethodsOf returns the named class's methods in declaration order.
	MethodsOf(name string) ([]Method, error)

	// AllMethods returns the methods of every class, class by class.
	AllMethods() ([]Method, error)

	// MethodGensOf binds the named class's methods to one shared pool.
	MethodGensOf(name string) ([]*MethodGen, error)

	// AllMethodGens returns MethodGensOf for every class, class by class.
	AllMethodGens() ([]*MethodGen, error)
}
