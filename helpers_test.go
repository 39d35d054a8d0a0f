package litescan

import (
	"encoding/binary"
	"math"
)

// The helpers in this file build hand-crafted SQLite-shaped byte buffers
// for tests, so the suite never depends on an external sqlite3 binary.

func testFileHeader(pageSize uint16) []byte {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:16], []byte(HeaderMagic))
	binary.BigEndian.PutUint16(buf[16:18], pageSize)
	buf[18] = 1 // write version
	buf[19] = 1 // read version
	buf[20] = 0 // reserved space
	buf[21] = maxEmbeddedPayloadFraction
	buf[22] = minEmbeddedPayloadFraction
	buf[23] = leafPayloadFraction
	binary.BigEndian.PutUint32(buf[44:48], 4) // schema format
	binary.BigEndian.PutUint32(buf[56:60], EncodingUTF8)
	return buf
}

// testRecord builds a record payload (header + body) from Go values. Each
// value is one of: nil, int64, float64, string, []byte.
func testRecord(values ...any) []byte {
	var serials []int64
	var body []byte
	for _, v := range values {
		switch x := v.(type) {
		case nil:
			serials = append(serials, 0)
		case int64:
			switch {
			case x == 0:
				serials = append(serials, 8)
			case x == 1:
				serials = append(serials, 9)
			default:
				serials = append(serials, 6)
				b := make([]byte, 8)
				binary.BigEndian.PutUint64(b, uint64(x))
				body = append(body, b...)
			}
		case float64:
			serials = append(serials, 7)
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, math.Float64bits(x))
			body = append(body, b...)
		case string:
			serials = append(serials, int64(13+2*len(x)))
			body = append(body, []byte(x)...)
		case []byte:
			serials = append(serials, int64(12+2*len(x)))
			body = append(body, x...)
		default:
			panic("testRecord: unsupported value type")
		}
	}

	var headerBody []byte
	for _, s := range serials {
		headerBody = append(headerBody, encodeVarint(uint64(s))...)
	}
	// headerLen counts its own varint's encoded size too, so solve for a
	// fixed point: almost always converges after one extra iteration.
	headerLenVarint := encodeVarint(uint64(len(headerBody) + 1))
	for {
		want := uint64(len(headerBody) + len(headerLenVarint))
		if uint64(len(encodeVarint(want))) == uint64(len(headerLenVarint)) {
			headerLenVarint = encodeVarint(want)
			break
		}
		headerLenVarint = encodeVarint(want)
	}

	out := append([]byte{}, headerLenVarint...)
	out = append(out, headerBody...)
	out = append(out, body...)
	return out
}

func testLeafTableCell(rowID int64, payload []byte) []byte {
	out := append([]byte{}, encodeVarint(uint64(len(payload)))...)
	out = append(out, encodeVarint(uint64(rowID))...)
	out = append(out, payload...)
	return out
}

func testInteriorTableCell(leftChild uint32, rowID int64) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, leftChild)
	out = append(out, encodeVarint(uint64(rowID))...)
	return out
}

func testLeafIndexCell(payload []byte) []byte {
	out := append([]byte{}, encodeVarint(uint64(len(payload)))...)
	out = append(out, payload...)
	return out
}

func testInteriorIndexCell(leftChild uint32, payload []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, leftChild)
	out = append(out, encodeVarint(uint64(len(payload)))...)
	out = append(out, payload...)
	return out
}

// testPage assembles a full page-sized buffer: the page header, the cell
// pointer array, and the cells laid out back-to-back immediately after it.
// pageNum selects whether the B-tree header starts at byte 0 or at byte
// FileHeaderSize (page 1).
func testPage(pageNum int, pageSize int, pageType PageType, cells [][]byte, rightMost uint32) []byte {
	buf := make([]byte, pageSize)
	start := 0
	if pageNum == 1 {
		start = FileHeaderSize
	}
	headerSize := 8
	if pageType.isInterior() {
		headerSize = 12
	}

	buf[start] = byte(pageType)
	binary.BigEndian.PutUint16(buf[start+3:start+5], uint16(len(cells)))
	if pageType.isInterior() {
		binary.BigEndian.PutUint32(buf[start+8:start+12], rightMost)
	}

	cellPtrStart := start + headerSize
	dataStart := cellPtrStart + len(cells)*2
	offset := dataStart
	offsets := make([]int, len(cells))
	for i, c := range cells {
		copy(buf[offset:offset+len(c)], c)
		offsets[i] = offset
		offset += len(c)
	}
	if offset > pageSize {
		panic("testPage: cells overflow page size")
	}
	contentStart := dataStart
	if len(cells) > 0 {
		contentStart = offsets[0]
	}
	if contentStart >= 65536 {
		contentStart = 0
	}
	binary.BigEndian.PutUint16(buf[start+5:start+7], uint16(contentStart))

	for i, off := range offsets {
		p := cellPtrStart + i*2
		binary.BigEndian.PutUint16(buf[p:p+2], uint16(off))
	}
	return buf
}

// testSingleLeafTableDB assembles a full one-page database file: the file
// header immediately followed by a leaf-table schema page (page 1 IS the
// table, i.e. the table's own root page). No test in this package calls it.
func testSingleLeafTableDB(pageSize int, cells [][]byte) []byte {
	page := testPage(1, pageSize, PageLeafTable, cells, 0)
	copy(page[0:FileHeaderSize], testFileHeader(uint16(pageSize)))
	return page
}
