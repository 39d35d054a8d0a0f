package litescan

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lindeneg/litescan/internal/scanerr"
)

// Database is an open handle onto a SQLite database file: the page
// reader, parsed file header, and materialized schema catalog. It owns
// the file handle acquired at Open and released by Close on every exit
// path.
type Database struct {
	SessionID uuid.UUID

	pager  *pager
	header *FileHeader
	schema *Schema

	logDroppedRows bool
	logger         *log.Logger
}

// Option configures a Database at Open time.
type Option func(*Database)

// WithDroppedRowLogging turns on logging of schema rows dropped for
// shape mismatches. Off by default so the core package stays silent
// unless a caller opts in.
func WithDroppedRowLogging(logger *log.Logger) Option {
	return func(db *Database) {
		db.logDroppedRows = true
		db.logger = logger
	}
}

// Open opens a SQLite database file, validates and parses its header, and
// materializes the schema catalog.
func Open(path string, opts ...Option) (*Database, error) {
	pgr, header, err := openPager(path)
	if err != nil {
		return nil, err
	}

	db := &Database{SessionID: uuid.New(), pager: pgr, header: header}
	for _, opt := range opts {
		opt(db)
	}

	schema, err := loadSchema(db)
	if err != nil {
		pgr.close()
		return nil, db.annotate(err)
	}
	db.schema = schema
	return db, nil
}

// annotate tags a *scanerr.ScanError with the handle's session id, so
// repeated CLI invocations against the same file are distinguishable in
// logs and error output. Errors of any other shape pass through unchanged.
func (db *Database) annotate(err error) error {
	if err == nil {
		return nil
	}
	var se *scanerr.ScanError
	if !errors.As(err, &se) {
		return err
	}
	return &scanerr.ScanError{
		Kind: se.Kind,
		Msg:  fmt.Sprintf("[session %s] %s", db.SessionID, se.Msg),
		Err:  se.Err,
	}
}

// Close releases the underlying file handle.
func (db *Database) Close() error {
	return db.pager.close()
}

// Header returns the parsed file header.
func (db *Database) Header() *FileHeader {
	return db.header
}

// Schema returns the materialized schema catalog.
func (db *Database) Schema() *Schema {
	return db.schema
}

func (db *Database) logf(format string, args ...any) {
	if !db.logDroppedRows {
		return
	}
	if db.logger != nil {
		db.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
