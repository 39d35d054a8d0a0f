// Package sqlmini implements the minimal SQL front-end the engine needs to
// drive the core: SELECT ... FROM ... [WHERE col = 'v'], and just enough
// CREATE TABLE / CREATE INDEX DDL parsing to recover column lists and
// index targets from stored schema strings.
//
// SELECT parsing is delegated to github.com/xwb1989/sqlparser: the
// grammar accepted here is a strict subset of what that parser handles,
// so only a narrow set of subtree shapes is ever consulted. CREATE TABLE
// and CREATE INDEX are not meaningfully supported by that parser's DDL
// path, so those two are hand-parsed instead.
package sqlmini

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// ColumnDef is one column declaration recovered from a CREATE TABLE
// statement: its name and the raw type/constraint tokens that followed it.
type ColumnDef struct {
	Name      string
	TypeWords []string
}

// CreateTableQuery is the parsed shape of a CREATE TABLE statement.
type CreateTableQuery struct {
	Table   string
	Columns []ColumnDef
	// RowIDColumnIndex is the index of a column declared INTEGER PRIMARY
	// KEY (the rowid alias), or -1 if there is none.
	RowIDColumnIndex int
}

// CreateIndexQuery is the parsed shape of a CREATE INDEX statement.
type CreateIndexQuery struct {
	Index  string
	Table  string
	Column string
}

// WhereClause is a single `column = 'value'` equality constraint. The spec
// grammar allows at most one.
type WhereClause struct {
	Column string
	Value  string
}

// SelectQuery is the parsed shape of a SELECT statement.
type SelectQuery struct {
	Columns []string // identifiers, "*", or "count(*)"
	Table   string
	Where   *WhereClause
	IsCount bool
}

// ParseSelect parses `SELECT cols FROM table [WHERE col = 'val']` using the
// general-purpose SQL parser, then narrows the result down to the shapes
// this engine's grammar supports.
func ParseSelect(sql string) (SelectQuery, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return SelectQuery{}, fmt.Errorf("parse error: %w", err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return SelectQuery{}, fmt.Errorf("parse error: only SELECT statements are supported")
	}

	cols := sqlNodeToTrimmedColumns(sel.SelectExprs)
	if len(cols) == 0 {
		return SelectQuery{}, fmt.Errorf("parse error: SELECT has no projected columns")
	}
	tables := sqlNodeToTrimmedColumns(sel.From)
	if len(tables) == 0 {
		return SelectQuery{}, fmt.Errorf("parse error: missing FROM table")
	}

	q := SelectQuery{
		Columns: cols,
		Table:   tables[0],
		IsCount: len(cols) == 1 && cols[0] == "count(*)",
	}

	if sel.Where != nil {
		where, err := parseWhere(sel.Where)
		if err != nil {
			return SelectQuery{}, err
		}
		q.Where = where
	}

	return q, nil
}

func parseWhere(w *sqlparser.Where) (*WhereClause, error) {
	buf := sqlparser.NewTrackedBuffer(nil)
	w.Expr.Format(buf)
	expr := buf.String()
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("parse error: WHERE must be a single `col = 'val'` equality")
	}
	// Only the column identifier folds to lower case; the literal value
	// is compared against rendered column text byte-for-byte, so its
	// case must survive untouched.
	col := strings.ToLower(cleanIdent(strings.TrimSpace(parts[0])))
	val := cleanIdent(strings.TrimSpace(parts[1]))
	return &WhereClause{Column: col, Value: val}, nil
}

func sqlNodeToTrimmedColumns(n sqlparser.SQLNode) []string {
	buf := sqlparser.NewTrackedBuffer(nil)
	n.Format(buf)
	raw := strings.ToLower(strings.ReplaceAll(buf.String(), " ", ""))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = cleanIdent(p)
	}
	return parts
}

func cleanIdent(s string) string {
	s = strings.Trim(s, "'\"`")
	return s
}

// ParseCreateTable recovers the column list (and rowid-alias column, if
// any) from a CREATE TABLE statement's stored DDL string.
func ParseCreateTable(sql string) (CreateTableQuery, error) {
	name, body, err := splitCreateStatement(sql, "table")
	if err != nil {
		return CreateTableQuery{}, err
	}

	defs := splitTopLevelCommas(body)
	var columns []ColumnDef
	rowIDIdx := -1
	for i, def := range defs {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		fields := strings.Fields(def)
		if len(fields) < 1 {
			return CreateTableQuery{}, fmt.Errorf("parse error: malformed column definition %q", def)
		}
		colName := strings.Trim(fields[0], "\"`[]")
		columns = append(columns, ColumnDef{Name: colName, TypeWords: fields[1:]})
		if strings.Contains(strings.ToUpper(def), "INTEGER PRIMARY KEY") {
			rowIDIdx = len(columns) - 1
		}
	}
	if len(columns) == 0 {
		return CreateTableQuery{}, fmt.Errorf("parse error: CREATE TABLE has no columns")
	}

	return CreateTableQuery{Table: name, Columns: columns, RowIDColumnIndex: rowIDIdx}, nil
}

// ParseCreateIndex recovers the (table, column) target of a CREATE INDEX
// statement's stored DDL string.
func ParseCreateIndex(sql string) (CreateIndexQuery, error) {
	upper := strings.ToUpper(sql)
	onPos := strings.Index(upper, " ON ")
	if onPos == -1 {
		return CreateIndexQuery{}, fmt.Errorf("parse error: CREATE INDEX missing ON clause")
	}
	head := strings.Fields(sql[:onPos])
	if len(head) < 3 || strings.ToUpper(head[0]) != "CREATE" || strings.ToUpper(head[1]) != "INDEX" {
		return CreateIndexQuery{}, fmt.Errorf("parse error: expected CREATE INDEX")
	}
	indexName := strings.Trim(head[2], "\"`[]")

	rest := strings.TrimSpace(sql[onPos+4:])
	parenStart := strings.Index(rest, "(")
	parenEnd := strings.LastIndex(rest, ")")
	if parenStart == -1 || parenEnd <= parenStart {
		return CreateIndexQuery{}, fmt.Errorf("parse error: CREATE INDEX missing column list")
	}
	tableName := strings.Trim(strings.TrimSpace(rest[:parenStart]), "\"`[]")
	column := strings.Trim(strings.TrimSpace(rest[parenStart+1:parenEnd]), "\"`[]")
	// Only a single indexed column is supported by this core.
	if comma := strings.Index(column, ","); comma != -1 {
		column = strings.TrimSpace(column[:comma])
	}

	return CreateIndexQuery{Index: indexName, Table: tableName, Column: column}, nil
}

// splitCreateStatement validates a "CREATE <kind> <name> ( ... )" prefix
// and returns the name and the parenthesized body.
func splitCreateStatement(sql string, kind string) (name string, body string, err error) {
	fields := strings.Fields(sql)
	if len(fields) < 3 || strings.ToUpper(fields[0]) != "CREATE" || !strings.EqualFold(fields[1], kind) {
		return "", "", fmt.Errorf("parse error: expected CREATE %s", strings.ToUpper(kind))
	}
	start := strings.Index(sql, "(")
	end := strings.LastIndex(sql, ")")
	if start == -1 || end <= start {
		return "", "", fmt.Errorf("parse error: missing column list parentheses")
	}
	// The name is whatever token sits directly before "(": split the
	// prefix on whitespace and take the last field, so exact spacing
	// between "CREATE TABLE"/"CREATE INDEX" and the name doesn't matter.
	prefixFields := strings.Fields(sql[:start])
	if len(prefixFields) < 3 {
		return "", "", fmt.Errorf("parse error: missing %s name", strings.ToUpper(kind))
	}
	namePart := strings.Trim(prefixFields[len(prefixFields)-1], "\"`[]")
	return namePart, sql[start+1 : end], nil
}

// splitTopLevelCommas splits a comma-separated list, respecting nested
// parentheses (e.g. `NUMERIC(10,2)` type declarations).
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}
