package litescan

import "github.com/lindeneg/litescan/internal/scanerr"

// probeIndex searches an index B-tree rooted at root for every rowid whose
// leading (first) indexed column renders to key. Comparison uses binary
// byte order on the rendered text form, which this core treats as the
// declared collation.
//
// Interior descent is deliberately over-inclusive rather than a strict
// binary search: any subtree whose separator could contain the key is
// explored. Interior cells are themselves full index entries (not just
// separators), so a match that lands exactly on an interior cell's own
// key is reported too, not just matches found at leaf level.
func (db *Database) probeIndex(root uint32, key string) ([]int64, error) {
	var rowids []int64
	stack := []uint32{root}
	for len(stack) > 0 {
		n := len(stack) - 1
		pageNum := stack[n]
		stack = stack[:n]

		page, err := db.readTreePage(pageNum)
		if err != nil {
			return nil, err
		}

		switch page.header.Type {
		case PageLeafIndex:
			for _, off := range page.cellPointers {
				cell, err := decodeLeafIndexCell(page.buf, int(off), db.header.TextEncoding)
				if err != nil {
					return nil, err
				}
				if len(cell.Payload) == 0 {
					continue
				}
				if renderColumnText(cell.Payload[0]) == key {
					rowid, err := indexRowID(cell.Payload)
					if err != nil {
						return nil, err
					}
					rowids = append(rowids, rowid)
				}
			}
		case PageInteriorIndex:
			pushRightmost := len(page.cellPointers) == 0
			// Push the stack in reverse cell order so that, combined with
			// the LIFO pop above, children are still visited left-to-right
			// and leaf matches are emitted in on-page order. A match on an
			// interior cell is emitted when its page is visited, ahead of
			// any matches in that cell's left subtree.
			var toPush []uint32
			for i := len(page.cellPointers) - 1; i >= 0; i-- {
				cell, err := decodeInteriorIndexCell(page.buf, int(page.cellPointers[i]), db.header.TextEncoding)
				if err != nil {
					return nil, err
				}
				if len(cell.Payload) == 0 {
					continue
				}
				cellKey := renderColumnText(cell.Payload[0])
				if cellKey == key {
					rowid, err := indexRowID(cell.Payload)
					if err != nil {
						return nil, err
					}
					rowids = append(rowids, rowid)
				}
				if key <= cellKey {
					toPush = append(toPush, cell.LeftChild)
				}
				if i == len(page.cellPointers)-1 && key >= cellKey {
					pushRightmost = true
				}
			}
			if pushRightmost {
				stack = append(stack, page.header.RightMostPointer)
			}
			stack = append(stack, toPush...)
		default:
			return nil, scanerr.New(scanerr.KindBadTreeShape, "unexpected page type under index root")
		}
	}
	return rowids, nil
}

// indexRowID extracts the trailing rowid column that every index leaf
// payload carries after its indexed key columns.
func indexRowID(payload Record) (int64, error) {
	last := payload[len(payload)-1]
	if last.Kind != ColInt {
		return 0, scanerr.New(scanerr.KindBadRecord, "index payload rowid column is not an integer")
	}
	return last.Int, nil
}
