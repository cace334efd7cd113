package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/classreg/pkg/types"
)

// timeLayout is fixed width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Index decodes reg and records one scan with its classes and methods in a
// single transaction. Decoding errors from the registry are returned
// unchanged and nothing is written.
func (s *Store) Index(reg types.Registry) (*types.Scan, error) {
	classes, err := reg.AllClasses()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrIndexDetached
	}

	scan := &types.Scan{
		ScanID:     generateUUID(),
		Container:  reg.Path().Path,
		Kind:       reg.Path().Kind.String(),
		ClassCount: len(classes),
		CreatedAt:  time.Now().UTC(),
	}
	for _, c := range classes {
		scan.MethodCount += len(c.Methods)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO scans (scan_id, container, kind, class_count, method_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		scan.ScanID, scan.Container, scan.Kind, scan.ClassCount, scan.MethodCount, scan.CreatedAt.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("inserting scan: %w", err)
	}

	classStmt, err := tx.Prepare(`INSERT INTO classes
		(scan_id, ordinal, class_name, unit_name, superclass_name, interfaces, access_flags, major_version, source_file, method_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing class insert: %w", err)
	}
	defer classStmt.Close()

	methodStmt, err := tx.Prepare(`INSERT INTO methods
		(scan_id, class_ordinal, ordinal, class_name, name, descriptor, signature, access_flags, code_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing method insert: %w", err)
	}
	defer methodStmt.Close()

	for i, c := range classes {
		ifaces, err := json.Marshal(nonNil(c.Interfaces))
		if err != nil {
			return nil, fmt.Errorf("encoding interfaces of %s: %w", c.ClassName, err)
		}
		if _, err := classStmt.Exec(scan.ScanID, i, c.ClassName, c.UnitName, c.SuperclassName, string(ifaces),
			int(c.AccessFlags), int(c.MajorVersion), c.SourceFile, len(c.Methods)); err != nil {
			return nil, fmt.Errorf("inserting class %s: %w", c.ClassName, err)
		}
		for j, m := range c.Methods {
			codeLength := 0
			if m.Code != nil {
				codeLength = len(m.Code.Bytecode)
			}
			if _, err := methodStmt.Exec(scan.ScanID, i, j, c.ClassName, m.Name, m.Descriptor, m.Signature(),
				int(m.AccessFlags), codeLength); err != nil {
				return nil, fmt.Errorf("inserting method %s.%s: %w", c.ClassName, m.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing index transaction: %w", err)
	}
	return scan, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Scans lists recorded scans, newest first.
func (s *Store) Scans() ([]types.Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrIndexDetached
	}

	rows, err := s.db.Query(`SELECT scan_id, container, kind, class_count, method_count, created_at
		FROM scans ORDER BY created_at DESC, scan_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var scans []types.Scan
	for rows.Next() {
		var sc types.Scan
		var created string
		if err := rows.Scan(&sc.ScanID, &sc.Container, &sc.Kind, &sc.ClassCount, &sc.MethodCount, &created); err != nil {
			return nil, err
		}
		if sc.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at of scan %s: %w", sc.ScanID, err)
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

// Classes returns the classes of a scan in container order.
func (s *Store) Classes(scanID string) ([]types.IndexedClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrIndexDetached
	}
	return s.classesLocked(scanID)
}

func (s *Store) classesLocked(scanID string) ([]types.IndexedClass, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM scans WHERE scan_id = ?`, scanID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrScanNotFound, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying scan: %w", err)
	}

	rows, err := s.db.Query(`SELECT ordinal, class_name, unit_name, superclass_name, interfaces,
		access_flags, major_version, source_file, method_count
		FROM classes WHERE scan_id = ? ORDER BY ordinal`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	classes := []types.IndexedClass{}
	for rows.Next() {
		c := types.IndexedClass{ScanID: scanID}
		var super, source sql.NullString
		var ifaces string
		if err := rows.Scan(&c.Ordinal, &c.ClassName, &c.UnitName, &super, &ifaces,
			&c.AccessFlags, &c.MajorVersion, &source, &c.MethodCount); err != nil {
			return nil, err
		}
		c.SuperclassName = super.String
		c.SourceFile = source.String
		if err := json.Unmarshal([]byte(ifaces), &c.Interfaces); err != nil {
			return nil, fmt.Errorf("decoding interfaces of %s: %w", c.ClassName, err)
		}
		if len(c.Interfaces) == 0 {
			c.Interfaces = nil
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// FindMethods returns every indexed method named name, newest scan first,
// then in container and declaration order.
func (s *Store) FindMethods(name string) ([]types.IndexedMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrIndexDetached
	}

	rows, err := s.db.Query(`SELECT m.scan_id, s.container, m.class_name, m.ordinal, m.name, m.descriptor,
		m.signature, m.access_flags, m.code_length
		FROM methods m JOIN scans s ON s.scan_id = m.scan_id
		WHERE m.name = ?
		ORDER BY s.created_at DESC, m.scan_id DESC, m.class_ordinal, m.ordinal`, name)
	if err != nil {
		return nil, fmt.Errorf("querying methods: %w", err)
	}
	defer rows.Close()

	var methods []types.IndexedMethod
	for rows.Next() {
		var m types.IndexedMethod
		if err := rows.Scan(&m.ScanID, &m.Container, &m.ClassName, &m.Ordinal, &m.Name, &m.Descriptor,
			&m.Signature, &m.AccessFlags, &m.CodeLength); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// ExportJSONL writes the classes of a scan to path as JSONL.
func (s *Store) ExportJSONL(scanID, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrIndexDetached
	}

	classes, err := s.classesLocked(scanID)
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(classes))
	for _, c := range classes {
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", c.ClassName, err)
		}
		records = append(records, b)
	}
	return writeJSONL(path, records)
}
