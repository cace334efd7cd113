package types

import (
	"errors"
	"time"
)

// Scan is one recorded indexing run over a container.
type Scan struct {
	ScanID      string    `json:"scan_id"` // UUID v7, generated when the scan is recorded.
	Container   string    `json:"container"`
	Kind        string    `json:"kind"`
	ClassCount  int       `json:"class_count"`
	MethodCount int       `json:"method_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// IndexedClass is the catalog row stored for a decoded class.
type IndexedClass struct {
	ScanID         string   `json:"scan_id"`
	Ordinal        int      `json:"ordinal"` // Position in container order.
	ClassName      string   `json:"class_name"`
	UnitName       string   `json:"unit_name"`
	SuperclassName string   `json:"superclass_name,omitempty"`
	Interfaces     []string `json:"interfaces,omitempty"`
	AccessFlags    uint16   `json:"access_flags"`
	MajorVersion   uint16   `json:"major_version"`
	SourceFile     string   `json:"source_file,omitempty"`
	MethodCount    int      `json:"method_count"`
}

// IndexedMethod is the catalog row stored for a method.
type IndexedMethod struct {
	ScanID      string `json:"scan_id"`
	Container   string `json:"container"`
	ClassName   string `json:"class_name"`
	Ordinal     int    `json:"ordinal"` // Position in declaration order.
	Name        string `json:"name"`
	Descriptor  string `json:"descriptor"`
	Signature   string `json:"signature"`
	AccessFlags uint16 `json:"access_flags"`
	CodeLength  int    `json:"code_length"`
}

// ClassIndex persists the classes of registries so they can be queried
// without decoding the container again.
type ClassIndex interface {
	// Attach opens the index in config.DataDir, creating it if needed.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach closes the index. Idempotent.
	Detach() error

	// Index decodes reg (if not already decoded) and records one scan.
	Index(reg Registry) (*Scan, error)

	// Scans lists recorded scans, newest first.
	Scans() ([]Scan, error)

	// Classes returns the classes of a scan in container order.
	// Returns ErrScanNotFound for an unknown scan.
	Classes(scanID string) ([]IndexedClass, error)

	// FindMethods returns every indexed method with the given name.
	FindMethods(name string) ([]IndexedMethod, error)

	// ExportJSONL writes the classes of a scan to path, one JSON object per
	// line, replacing the file atomically.
	ExportJSONL(scanID, path string) error
}

// Class index errors.
var (
	ErrIndexDetached   = errors.New("class index is detached")
	ErrAlreadyAttached = errors.New("class index is already attached")
	ErrScanNotFound    = errors.New("scan not found")
)
