package litescan

import (
	"strings"

	"github.com/lindeneg/litescan/internal/scanerr"
	"github.com/lindeneg/litescan/internal/sqlmini"
)

const internalTablePrefix = "sqlite_"

// SchemaEntry is one row of the schema catalog: the {type, name, tbl_name,
// rootpage, sql} tuple sqlite_schema stores.
type SchemaEntry struct {
	Type     string
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// Schema is the materialized, immutable catalog of user tables and indexes
// reconstructed from page 1.
type Schema struct {
	entries []SchemaEntry
	byName  map[string]*SchemaEntry // case-insensitive table/index lookup
}

// loadSchema scans the schema B-tree rooted at page 1 and builds the
// catalog. Rows whose shape doesn't match the expected five-column layout
// are dropped rather than failing the open: a single anomalous
// tool-created row must not brick the engine.
func loadSchema(db *Database) (*Schema, error) {
	s := &Schema{byName: make(map[string]*SchemaEntry)}
	for row, err := range db.tableIterator(1) {
		if err != nil {
			return nil, err
		}
		entry, ok := schemaEntryFromRecord(row.Record)
		if !ok {
			if db.logDroppedRows {
				db.logf("dropping malformed schema row at rowid %d", row.RowID)
			}
			continue
		}
		s.entries = append(s.entries, entry)
		s.byName[strings.ToLower(entry.Name)] = &s.entries[len(s.entries)-1]
	}
	return s, nil
}

func schemaEntryFromRecord(rec Record) (SchemaEntry, bool) {
	if len(rec) != 5 {
		return SchemaEntry{}, false
	}
	if rec[0].Kind != ColText || rec[1].Kind != ColText || rec[2].Kind != ColText {
		return SchemaEntry{}, false
	}
	if rec[3].Kind != ColInt {
		return SchemaEntry{}, false
	}
	sqlText := ""
	switch rec[4].Kind {
	case ColText:
		sqlText = rec[4].Text
	case ColNull:
		sqlText = ""
	default:
		return SchemaEntry{}, false
	}
	return SchemaEntry{
		Type:     rec[0].Text,
		Name:     rec[1].Text,
		TblName:  rec[2].Text,
		RootPage: uint32(rec[3].Int),
		SQL:      sqlText,
	}, true
}

// Tables returns every user table (type=="table", name not internal).
func (s *Schema) Tables() []SchemaEntry {
	var out []SchemaEntry
	for _, e := range s.entries {
		if e.Type == "table" && !strings.HasPrefix(e.Name, internalTablePrefix) {
			out = append(out, e)
		}
	}
	return out
}

// Table performs a case-insensitive lookup of a table (or view) by name.
func (s *Schema) Table(name string) (SchemaEntry, error) {
	e, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return SchemaEntry{}, scanerr.New(scanerr.KindNoSuchTable, "no such table: "+name)
	}
	return *e, nil
}

// IndexesOn returns every index schema entry whose parsed CREATE INDEX
// statement targets (table, column).
func (s *Schema) IndexesOn(table, column string) []SchemaEntry {
	var out []SchemaEntry
	for _, e := range s.entries {
		if e.Type != "index" || e.SQL == "" {
			continue
		}
		idx, err := sqlmini.ParseCreateIndex(e.SQL)
		if err != nil {
			continue
		}
		if strings.EqualFold(idx.Table, table) && strings.EqualFold(idx.Column, column) {
			out = append(out, e)
		}
	}
	return out
}
