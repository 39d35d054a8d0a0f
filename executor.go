package litescan

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lindeneg/litescan/internal/scanerr"
	"github.com/lindeneg/litescan/internal/sqlmini"
)

// Executor binds parsed SELECT statements to storage and emits rows (spec
// §4.11, C11).
type Executor struct {
	db *Database
}

// NewExecutor returns an Executor bound to an open Database.
func NewExecutor(db *Database) *Executor {
	return &Executor{db: db}
}

// boundTable is the resolved binding of a SELECT statement to a table's
// schema: its declared columns, the rowid-alias column index (-1 if none),
// and a lower-cased column-name to column-index lookup.
type boundTable struct {
	entry       SchemaEntry
	columns     []sqlmini.ColumnDef
	rowIDColIdx int
	colIndex    map[string]int
}

func (ex *Executor) bindTable(tableName string) (*boundTable, error) {
	entry, err := ex.db.schema.Table(tableName)
	if err != nil {
		return nil, err
	}
	ddl, err := sqlmini.ParseCreateTable(entry.SQL)
	if err != nil {
		return nil, scanerr.Wrap(scanerr.KindParseError, "parsing stored DDL for table "+tableName, err)
	}
	idx := make(map[string]int, len(ddl.Columns))
	for i, c := range ddl.Columns {
		idx[strings.ToLower(c.Name)] = i
	}
	return &boundTable{
		entry:       entry,
		columns:     ddl.Columns,
		rowIDColIdx: ddl.RowIDColumnIndex,
		colIndex:    idx,
	}, nil
}

// resolveProjection expands "*" and validates identifiers, returning the
// column indices to emit in order; -1 marks the distinguished COUNT(*)
// projection. The rowid-alias column keeps its declared index; cellText
// substitutes the rowid for it.
func (bt *boundTable) resolveProjection(cols []string) ([]int, error) {
	if len(cols) == 1 && cols[0] == "count(*)" {
		return []int{-1}, nil
	}
	var out []int
	for _, c := range cols {
		if c == "*" {
			for i := range bt.columns {
				out = append(out, i)
			}
			continue
		}
		i, ok := bt.colIndex[strings.ToLower(c)]
		if !ok {
			return nil, scanerr.New(scanerr.KindNoSuchColumn, "no such column: "+c)
		}
		out = append(out, i)
	}
	return out, nil
}

// cellText renders column colIdx of rec as text, substituting the table
// rowid when colIdx is the INTEGER PRIMARY KEY alias - the rule grounded
// in the column's actual declaration, not a `name == "id"` heuristic.
func (bt *boundTable) cellText(rowID int64, rec Record, colIdx int) string {
	if colIdx == bt.rowIDColIdx {
		return strconv.FormatInt(rowID, 10)
	}
	if colIdx < 0 || colIdx >= len(rec) {
		return ""
	}
	return renderColumnText(rec[colIdx])
}

// Execute parses and runs a single SELECT statement, writing pipe-separated
// projected rows (or, for COUNT(*), a single cardinality line) to w,
// followed by a trailing newline per row.
func (ex *Executor) Execute(query string, w io.Writer) error {
	return ex.db.annotate(ex.execute(query, w))
}

func (ex *Executor) execute(query string, w io.Writer) error {
	q, err := sqlmini.ParseSelect(query)
	if err != nil {
		return scanerr.Wrap(scanerr.KindParseError, "parsing SELECT", err)
	}

	bt, err := ex.bindTable(q.Table)
	if err != nil {
		return err
	}

	proj, err := bt.resolveProjection(q.Columns)
	if err != nil {
		return err
	}
	isCount := len(proj) == 1 && proj[0] == -1

	whereColIdx := -1
	var whereVal string
	if q.Where != nil {
		idx, ok := bt.colIndex[strings.ToLower(q.Where.Column)]
		if !ok {
			return scanerr.New(scanerr.KindNoSuchColumn, "no such column: "+q.Where.Column)
		}
		whereColIdx = idx
		whereVal = q.Where.Value
	}

	useIndex := false
	var indexRoot uint32
	if q.Where != nil {
		if idxs := ex.db.schema.IndexesOn(bt.entry.Name, q.Where.Column); len(idxs) > 0 {
			useIndex = true
			indexRoot = idxs[0].RootPage
		}
	}

	switch {
	case useIndex && !isCount:
		return ex.executeIndexPath(bt, proj, indexRoot, whereVal, w)
	case useIndex && isCount:
		rowids, err := ex.db.probeIndex(indexRoot, whereVal)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\n", len(rowids))
		return nil
	default:
		return ex.executeScanPath(bt, proj, whereColIdx, whereVal, isCount, w)
	}
}

func (ex *Executor) executeIndexPath(bt *boundTable, proj []int, indexRoot uint32, whereVal string, w io.Writer) error {
	rowids, err := ex.db.probeIndex(indexRoot, whereVal)
	if err != nil {
		return err
	}
	for _, rowid := range rowids {
		row, err := ex.db.findByRowID(bt.entry.RootPage, rowid)
		if err != nil {
			return scanerr.Wrap(scanerr.KindBadRecord, "resolving indexed rowid", err)
		}
		emitRow(w, bt, proj, row)
	}
	return nil
}

func (ex *Executor) executeScanPath(bt *boundTable, proj []int, whereColIdx int, whereVal string, isCount bool, w io.Writer) error {
	count := 0
	for row, err := range ex.db.tableIterator(bt.entry.RootPage) {
		if err != nil {
			return scanerr.Wrap(scanerr.KindBadRecord, "scanning table "+bt.entry.Name, err)
		}
		if whereColIdx != -1 {
			if bt.cellText(row.RowID, row.Record, whereColIdx) != whereVal {
				continue
			}
		}
		if isCount {
			count++
			continue
		}
		emitRow(w, bt, proj, row)
	}
	if isCount {
		fmt.Fprintf(w, "%d\n", count)
	}
	return nil
}

func emitRow(w io.Writer, bt *boundTable, proj []int, row Row) {
	parts := make([]string, len(proj))
	for i, colIdx := range proj {
		parts[i] = bt.cellText(row.RowID, row.Record, colIdx)
	}
	fmt.Fprintf(w, "%s\n", strings.Join(parts, "|"))
}
