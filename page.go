package litescan

import (
	"encoding/binary"

	"github.com/lindeneg/litescan/internal/scanerr"
)

// PageType is the one-byte type tag at the start of every B-tree page.
type PageType uint8

const (
	PageInteriorIndex PageType = 2
	PageInteriorTable PageType = 5
	PageLeafIndex     PageType = 10
	PageLeafTable     PageType = 13
)

func (t PageType) isInterior() bool {
	return t == PageInteriorIndex || t == PageInteriorTable
}

func (t PageType) valid() bool {
	switch t {
	case PageInteriorIndex, PageInteriorTable, PageLeafIndex, PageLeafTable:
		return true
	default:
		return false
	}
}

// pageHeader is the decoded 8-byte (leaf) or 12-byte (interior) B-tree page
// header.
type pageHeader struct {
	Type                PageType
	FirstFreeblock      uint16
	CellCount           uint16
	CellContentStart    uint16 // 0 represents 65536
	FragmentedFreeBytes uint8
	RightMostPointer    uint32 // interior pages only
}

func (h pageHeader) headerSize() int {
	if h.Type.isInterior() {
		return 12
	}
	return 8
}

// decodedPage is a page buffer paired with its decoded header and
// page-relative cell-pointer array.
type decodedPage struct {
	buf          []byte
	start        int // byte offset of the page header within buf (100 for page 1, 0 otherwise)
	header       pageHeader
	cellPointers []uint16
}

// decodePage parses the page header and cell-pointer array of a page
// buffer. start is 100 for page 1 (past the file header), 0 otherwise.
func decodePage(buf []byte, start int) (*decodedPage, error) {
	if len(buf) < start+8 {
		return nil, scanerr.New(scanerr.KindTruncated, "page too small for header")
	}
	h := pageHeader{
		Type:                PageType(buf[start]),
		FirstFreeblock:      binary.BigEndian.Uint16(buf[start+1 : start+3]),
		CellCount:           binary.BigEndian.Uint16(buf[start+3 : start+5]),
		CellContentStart:    binary.BigEndian.Uint16(buf[start+5 : start+7]),
		FragmentedFreeBytes: buf[start+7],
	}
	if !h.Type.valid() {
		return nil, scanerr.New(scanerr.KindBadPageType, "unknown page type byte")
	}
	headerSize := h.headerSize()
	if h.Type.isInterior() {
		if len(buf) < start+12 {
			return nil, scanerr.New(scanerr.KindTruncated, "interior page too small for right-most pointer")
		}
		h.RightMostPointer = binary.BigEndian.Uint32(buf[start+8 : start+12])
	}

	cellPtrStart := start + headerSize
	cellPtrEnd := cellPtrStart + int(h.CellCount)*2
	if len(buf) < cellPtrEnd {
		return nil, scanerr.New(scanerr.KindTruncated, "cell pointer array runs past page end")
	}
	pointers := make([]uint16, h.CellCount)
	for i := range pointers {
		off := cellPtrStart + i*2
		pointers[i] = binary.BigEndian.Uint16(buf[off : off+2])
	}

	return &decodedPage{buf: buf, start: start, header: h, cellPointers: pointers}, nil
}

// interiorTableCell is the decoded form of an interior-table B-tree cell:
// a left-child page pointer and the rowid key dividing the keyspace.
type interiorTableCell struct {
	LeftChild uint32
	RowID     int64
}

// leafTableCell is a fully-decoded table row: its rowid and record.
type leafTableCell struct {
	RowID   int64
	Payload Record
}

// interiorIndexCell is the decoded form of an interior-index B-tree cell:
// a left-child pointer and the index key record.
type interiorIndexCell struct {
	LeftChild uint32
	Payload   Record
}

// leafIndexCell holds a decoded index key record (its last column is the
// referenced table rowid, per SQLite's index payload layout).
type leafIndexCell struct {
	Payload Record
}

func decodeInteriorTableCell(buf []byte, offset int) (interiorTableCell, error) {
	if len(buf) < offset+4 {
		return interiorTableCell{}, scanerr.New(scanerr.KindTruncated, "interior table cell truncated before left child pointer")
	}
	left := binary.BigEndian.Uint32(buf[offset : offset+4])
	rowID, _, err := readVarint(buf[offset+4:])
	if err != nil {
		return interiorTableCell{}, err
	}
	return interiorTableCell{LeftChild: left, RowID: rowID}, nil
}

func decodeLeafTableCell(buf []byte, offset int, enc uint32) (leafTableCell, error) {
	payloadLen, n1, err := readVarint(buf[offset:])
	if err != nil {
		return leafTableCell{}, err
	}
	rowID, n2, err := readVarint(buf[offset+n1:])
	if err != nil {
		return leafTableCell{}, err
	}
	payloadStart := offset + n1 + n2
	payload, err := readLocalPayload(buf, payloadStart, payloadLen)
	if err != nil {
		return leafTableCell{}, err
	}
	rec, err := decodeRecord(payload, enc)
	if err != nil {
		return leafTableCell{}, err
	}
	return leafTableCell{RowID: rowID, Payload: rec}, nil
}

func decodeInteriorIndexCell(buf []byte, offset int, enc uint32) (interiorIndexCell, error) {
	if len(buf) < offset+4 {
		return interiorIndexCell{}, scanerr.New(scanerr.KindTruncated, "interior index cell truncated before left child pointer")
	}
	left := binary.BigEndian.Uint32(buf[offset : offset+4])
	payloadLen, n, err := readVarint(buf[offset+4:])
	if err != nil {
		return interiorIndexCell{}, err
	}
	payload, err := readLocalPayload(buf, offset+4+n, payloadLen)
	if err != nil {
		return interiorIndexCell{}, err
	}
	rec, err := decodeRecord(payload, enc)
	if err != nil {
		return interiorIndexCell{}, err
	}
	return interiorIndexCell{LeftChild: left, Payload: rec}, nil
}

func decodeLeafIndexCell(buf []byte, offset int, enc uint32) (leafIndexCell, error) {
	payloadLen, n, err := readVarint(buf[offset:])
	if err != nil {
		return leafIndexCell{}, err
	}
	payload, err := readLocalPayload(buf, offset+n, payloadLen)
	if err != nil {
		return leafIndexCell{}, err
	}
	rec, err := decodeRecord(payload, enc)
	if err != nil {
		return leafIndexCell{}, err
	}
	return leafIndexCell{Payload: rec}, nil
}

// readLocalPayload returns the payloadLen bytes starting at start. A
// payload whose claimed length runs past the page buffer indicates it
// spills onto overflow pages, which this engine does not follow; that
// case is reported rather than silently truncated.
func readLocalPayload(buf []byte, start int, payloadLen int64) ([]byte, error) {
	if payloadLen < 0 {
		return nil, scanerr.New(scanerr.KindBadRecord, "negative payload length")
	}
	end := start + int(payloadLen)
	if end > len(buf) {
		return nil, scanerr.New(scanerr.KindBadRecord, "payload spills onto overflow pages, which are unsupported")
	}
	return buf[start:end], nil
}
