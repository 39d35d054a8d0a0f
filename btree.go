package litescan

import (
	"iter"
	"sort"

	"github.com/lindeneg/litescan/internal/scanerr"
)

// Row is one decoded table row: its rowid and column values.
type Row struct {
	RowID  int64
	Record Record
}

// tableIterator performs an in-order traversal of the table B-tree rooted
// at root, yielding every leaf row in rowid order. It uses an explicit
// work-list rather than function recursion so a deep tree cannot overflow
// the call stack; ordering is unaffected by that choice.
func (db *Database) tableIterator(root uint32) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		stack := []uint32{root}
		for len(stack) > 0 {
			n := len(stack) - 1
			pageNum := stack[n]
			stack = stack[:n]

			page, err := db.readTreePage(pageNum)
			if err != nil {
				yield(Row{}, err)
				return
			}

			switch page.header.Type {
			case PageLeafTable:
				for _, off := range page.cellPointers {
					cell, err := decodeLeafTableCell(page.buf, int(off), db.header.TextEncoding)
					if err != nil {
						yield(Row{}, err)
						return
					}
					if !yield(Row{RowID: cell.RowID, Record: cell.Payload}, nil) {
						return
					}
				}
			case PageInteriorTable:
				// Push in reverse so the leftmost child is processed first
				// (stack is LIFO): right-most pointer, then each cell's
				// left child from last to first.
				push := make([]uint32, 0, len(page.cellPointers)+1)
				push = append(push, page.header.RightMostPointer)
				for i := len(page.cellPointers) - 1; i >= 0; i-- {
					cell, err := decodeInteriorTableCell(page.buf, int(page.cellPointers[i]))
					if err != nil {
						yield(Row{}, err)
						return
					}
					push = append(push, cell.LeftChild)
				}
				stack = append(stack, push...)
			default:
				yield(Row{}, scanerr.New(scanerr.KindBadTreeShape, "unexpected page type under table root"))
				return
			}
		}
	}
}

// readTreePage reads and decodes the page at pageNum, handling the page-1
// special case where the page header begins after the 100-byte file
// header.
func (db *Database) readTreePage(pageNum uint32) (*decodedPage, error) {
	buf, err := db.pager.readPage(pageNum)
	if err != nil {
		return nil, err
	}
	start := 0
	if pageNum == 1 {
		start = FileHeaderSize
	}
	return decodePage(buf, start)
}

// findByRowID resolves a single row by rowid, descending the table B-tree
// using the interior-cell rowid separators.
func (db *Database) findByRowID(root uint32, rowID int64) (Row, error) {
	pageNum := root
	for {
		page, err := db.readTreePage(pageNum)
		if err != nil {
			return Row{}, err
		}
		switch page.header.Type {
		case PageLeafTable:
			for _, off := range page.cellPointers {
				cell, err := decodeLeafTableCell(page.buf, int(off), db.header.TextEncoding)
				if err != nil {
					return Row{}, err
				}
				if cell.RowID == rowID {
					return Row{RowID: cell.RowID, Record: cell.Payload}, nil
				}
			}
			return Row{}, scanerr.New(scanerr.KindBadRecord, "rowid not found on leaf page")
		case PageInteriorTable:
			cells := make([]interiorTableCell, len(page.cellPointers))
			for i, off := range page.cellPointers {
				c, err := decodeInteriorTableCell(page.buf, int(off))
				if err != nil {
					return Row{}, err
				}
				cells[i] = c
			}
			i := sort.Search(len(cells), func(i int) bool {
				return rowID <= cells[i].RowID
			})
			if i < len(cells) {
				pageNum = cells[i].LeftChild
			} else {
				pageNum = page.header.RightMostPointer
			}
		default:
			return Row{}, scanerr.New(scanerr.KindBadTreeShape, "unexpected page type under table root")
		}
	}
}
