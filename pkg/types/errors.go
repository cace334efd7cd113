package types

import (
	"errors"
	"fmt"
)

// Lookup and container errors.
var (
	ErrInvalidContainer = errors.New("unsupported container: extension must be .class, .jar or .zip")
	ErrClassNotFound    = errors.New("class not found")
)

// Constant pool and descriptor errors.
var (
	ErrConstantIndex     = errors.New("invalid constant pool index")
	ErrConstantTag       = errors.New("unexpected constant pool tag")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// ContainerIOError reports a failure to open, read, or close a container or
// one of its members. It is distinct from DecodeError: the bytes could not be
// obtained at all.
type ContainerIOError struct {
	Path string // Container path, or "archive!entry" for an archive member.
	Op   string // "open", "read" or "close".
	Err  error
}

func (e *ContainerIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ContainerIOError) Unwrap() error { return e.Err }

// DecodeError reports that a member's bytes are not a well-formed class unit.
type DecodeError struct {
	Member string // Unit name handed to the decoder.
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Member, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InconsistencyError is the panic value raised when a class enumerated by a
// registry cannot be found again by name. It signals a broken registry, not a
// lookup miss, and is never returned as an ordinary error.
type InconsistencyError struct {
	ClassName string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("registry inconsistency: enumerated class %q not found by name: %v", e.ClassName, e.Err)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }
