package litescan

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPageSize = 512

// buildPeopleDB assembles a three-page synthetic database: page 1 is the
// schema catalog (describing a "people" table rooted at page 2 and an
// index on its name column rooted at page 3), page 2 holds three table
// rows, and page 3 holds the matching index leaf entries.
func buildPeopleDB(t *testing.T) string {
	t.Helper()

	schemaCells := [][]byte{
		testLeafTableCell(1, testRecord(
			"table", "people", "people", int64(2),
			"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)",
		)),
		testLeafTableCell(2, testRecord(
			"index", "idx_people_name", "people", int64(3),
			"CREATE INDEX idx_people_name ON people (name)",
		)),
	}
	page1 := testPage(1, testPageSize, PageLeafTable, schemaCells, 0)
	copy(page1[0:FileHeaderSize], testFileHeader(testPageSize))

	peopleCells := [][]byte{
		testLeafTableCell(1, testRecord(nil, "alice", int64(30))),
		testLeafTableCell(2, testRecord(nil, "bob", int64(25))),
		testLeafTableCell(3, testRecord(nil, "carol", int64(40))),
	}
	page2 := testPage(2, testPageSize, PageLeafTable, peopleCells, 0)

	indexCells := [][]byte{
		testLeafIndexCell(testRecord("alice", int64(1))),
		testLeafIndexCell(testRecord("bob", int64(2))),
		testLeafIndexCell(testRecord("carol", int64(3))),
	}
	page3 := testPage(3, testPageSize, PageLeafIndex, indexCells, 0)

	var buf bytes.Buffer
	buf.Write(page1)
	buf.Write(page2)
	buf.Write(page3)

	path := filepath.Join(t.TempDir(), "people.sqlite")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write synthetic database: %v", err)
	}
	return path
}

func TestOpenAndSchema(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	tables := db.Schema().Tables()
	if len(tables) != 1 || tables[0].Name != "people" {
		t.Fatalf("got tables %+v, want just people", tables)
	}

	entry, err := db.Schema().Table("PEOPLE")
	if err != nil {
		t.Fatalf("Table (case-insensitive): %v", err)
	}
	if entry.RootPage != 2 {
		t.Fatalf("got root page %d, want 2", entry.RootPage)
	}

	idxs := db.Schema().IndexesOn("people", "name")
	if len(idxs) != 1 || idxs[0].Name != "idx_people_name" {
		t.Fatalf("got indexes %+v, want idx_people_name", idxs)
	}
}

func TestOpenNoSuchTable(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, err = db.Schema().Table("ghosts")
	if err == nil {
		t.Fatal("expected error for missing table")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrNoSuchTable {
		t.Fatalf("expected ErrNoSuchTable, got %v", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sqlite")
	buf := testFileHeader(testPageSize)
	copy(buf[0:16], []byte("not a database\x00\x00"))
	full := make([]byte, testPageSize)
	copy(full, buf)
	if err := os.WriteFile(path, full, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error opening file with bad magic")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestTableIteratorOrder(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var rowids []int64
	for row, err := range db.tableIterator(2) {
		if err != nil {
			t.Fatalf("tableIterator: %v", err)
		}
		rowids = append(rowids, row.RowID)
	}
	want := []int64{1, 2, 3}
	if len(rowids) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rowids), len(want))
	}
	for i := range want {
		if rowids[i] != want[i] {
			t.Fatalf("row %d: got rowid %d, want %d", i, rowids[i], want[i])
		}
	}
}

func TestFindByRowID(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	row, err := db.findByRowID(2, 2)
	if err != nil {
		t.Fatalf("findByRowID: %v", err)
	}
	if row.Record[1].Text != "bob" {
		t.Fatalf("got %+v, want bob", row.Record)
	}

	_, err = db.findByRowID(2, 99)
	if err == nil {
		t.Fatal("expected error for missing rowid")
	}
}

func TestProbeIndex(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	rowids, err := db.probeIndex(3, "bob")
	if err != nil {
		t.Fatalf("probeIndex: %v", err)
	}
	if len(rowids) != 1 || rowids[0] != 2 {
		t.Fatalf("got %v, want [2]", rowids)
	}

	rowids, err = db.probeIndex(3, "nobody")
	if err != nil {
		t.Fatalf("probeIndex: %v", err)
	}
	if len(rowids) != 0 {
		t.Fatalf("got %v, want no matches", rowids)
	}
}

func TestExecutorCount(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	if err := NewExecutor(db).Execute("SELECT COUNT(*) FROM people", &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

func TestExecutorScanWithRowIDWhere(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	if err := NewExecutor(db).Execute("SELECT name FROM people WHERE id = 2", &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "bob\n" {
		t.Fatalf("got %q, want %q", got, "bob\n")
	}
}

func TestExecutorIndexPath(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	if err := NewExecutor(db).Execute("SELECT id, name, age FROM people WHERE name = 'bob'", &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "2|bob|25\n" {
		t.Fatalf("got %q, want %q", got, "2|bob|25\n")
	}
}

// buildFruitDB mirrors the mixed-case WHERE literal scenario: a table with
// no index on the filtered column, so matching goes through the table scan
// path's cellText comparison rather than the index probe path.
func buildFruitDB(t *testing.T) string {
	t.Helper()

	schemaCells := [][]byte{
		testLeafTableCell(1, testRecord(
			"table", "fruit", "fruit", int64(2),
			"CREATE TABLE fruit (id INTEGER PRIMARY KEY, name TEXT, color TEXT)",
		)),
	}
	page1 := testPage(1, testPageSize, PageLeafTable, schemaCells, 0)
	copy(page1[0:FileHeaderSize], testFileHeader(testPageSize))

	fruitCells := [][]byte{
		testLeafTableCell(1, testRecord(nil, "Honeycrisp", "Red")),
		testLeafTableCell(2, testRecord(nil, "Gala", "Red")),
		testLeafTableCell(3, testRecord(nil, "Kiwi", "Green")),
	}
	page2 := testPage(2, testPageSize, PageLeafTable, fruitCells, 0)

	var buf bytes.Buffer
	buf.Write(page1)
	buf.Write(page2)

	path := filepath.Join(t.TempDir(), "fruit.sqlite")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write synthetic database: %v", err)
	}
	return path
}

func TestExecutorScanWhereMixedCase(t *testing.T) {
	db, err := Open(buildFruitDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	if err := NewExecutor(db).Execute("SELECT name FROM fruit WHERE color = 'Red'", &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.String(); got != "Honeycrisp\nGala\n" {
		t.Fatalf("got %q, want %q", got, "Honeycrisp\nGala\n")
	}
}

// buildDeepIndexDB assembles an index B-tree with one interior root page
// over two leaf pages, where the search key lives only on the interior
// cell itself and never appears on either leaf.
func buildDeepIndexDB(t *testing.T) string {
	t.Helper()

	page1 := testPage(1, testPageSize, PageLeafTable, nil, 0)
	copy(page1[0:FileHeaderSize], testFileHeader(testPageSize))

	page2 := testPage(2, testPageSize, PageLeafIndex, [][]byte{
		testLeafIndexCell(testRecord("alice", int64(1))),
	}, 0)
	page3 := testPage(3, testPageSize, PageLeafIndex, [][]byte{
		testLeafIndexCell(testRecord("carol", int64(3))),
	}, 0)
	page4 := testPage(4, testPageSize, PageInteriorIndex, [][]byte{
		testInteriorIndexCell(2, testRecord("bob", int64(2))),
	}, 3)

	var buf bytes.Buffer
	buf.Write(page1)
	buf.Write(page2)
	buf.Write(page3)
	buf.Write(page4)

	path := filepath.Join(t.TempDir(), "deepindex.sqlite")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write synthetic database: %v", err)
	}
	return path
}

func TestProbeIndexInteriorCellExactMatch(t *testing.T) {
	db, err := Open(buildDeepIndexDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	rowids, err := db.probeIndex(4, "bob")
	if err != nil {
		t.Fatalf("probeIndex: %v", err)
	}
	if len(rowids) != 1 || rowids[0] != 2 {
		t.Fatalf("got %v, want [2] (the match lives on the interior cell itself)", rowids)
	}
}

func TestExecutorErrorIncludesSessionID(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	err = NewExecutor(db).Execute("SELECT ghost FROM people", &out)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	if !strings.Contains(err.Error(), db.SessionID.String()) {
		t.Fatalf("error %q does not include session id %s", err.Error(), db.SessionID)
	}
}

func TestExecutorNoSuchColumn(t *testing.T) {
	db, err := Open(buildPeopleDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var out bytes.Buffer
	err = NewExecutor(db).Execute("SELECT ghost FROM people", &out)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrNoSuchColumn {
		t.Fatalf("expected ErrNoSuchColumn, got %v", err)
	}
}
