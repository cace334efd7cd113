package sqlite

import "database/sql"

// Schema DDL for all tables. Statements are idempotent so that Attach can
// reopen an existing index.
const (
	createScans = `CREATE TABLE IF NOT EXISTS scans (
    scan_id TEXT PRIMARY KEY,
    container TEXT NOT NULL,
    kind TEXT NOT NULL,
    class_count INTEGER NOT NULL,
    method_count INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createClasses = `CREATE TABLE IF NOT EXISTS classes (
    scan_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    class_name TEXT NOT NULL,
    unit_name TEXT NOT NULL,
    superclass_name TEXT,
    interfaces TEXT NOT NULL,
    access_flags INTEGER NOT NULL,
    major_version INTEGER NOT NULL,
    source_file TEXT,
    method_count INTEGER NOT NULL,
    PRIMARY KEY (scan_id, ordinal),
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE
);`

	createMethods = `CREATE TABLE IF NOT EXISTS methods (
    scan_id TEXT NOT NULL,
    class_ordinal INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    class_name TEXT NOT NULL,
    name TEXT NOT NULL,
    descriptor TEXT NOT NULL,
    signature TEXT NOT NULL,
    access_flags INTEGER NOT NULL,
    code_length INTEGER NOT NULL,
    PRIMARY KEY (scan_id, class_ordinal, ordinal),
    FOREIGN KEY (scan_id, class_ordinal) REFERENCES classes(scan_id, ordinal) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxClassesName  = `CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(class_name);`
	idxMethodsName  = `CREATE INDEX IF NOT EXISTS idx_methods_name ON methods(name);`
	idxScansCreated = `CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createScans,
	createClasses,
	createMethods,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxClassesName,
	idxMethodsName,
	idxScansCreated,
}

// applySchema enables foreign keys and creates any missing tables and indexes.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
