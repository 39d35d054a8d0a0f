package litescan

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/lindeneg/litescan/internal/scanerr"
	"golang.org/x/text/encoding/unicode"
)

// ColumnKind tags the dynamic type of a decoded column value.
type ColumnKind int

const (
	ColNull ColumnKind = iota
	ColInt
	ColFloat
	ColBlob
	ColText
)

// Column is a single decoded record value. Exactly one of Int/Float/Blob/
// Text is meaningful, selected by Kind.
type Column struct {
	Kind  ColumnKind
	Int   int64
	Float float64
	Blob  []byte
	Text  string
}

// Record is a decoded row or index key: one Column per declared column, in
// schema order.
type Record []Column

// decodeRecord decodes a cell payload's record header (serial types) and
// body into a typed column vector. enc is the file header's text encoding
// field, used to interpret TEXT column bodies.
func decodeRecord(payload []byte, enc uint32) (Record, error) {
	headerLen, n, err := readVarint(payload)
	if err != nil {
		return nil, err
	}
	if headerLen < int64(n) || int(headerLen) > len(payload) {
		return nil, scanerr.New(scanerr.KindBadRecord, "record header length out of bounds")
	}

	header := payload[n:headerLen]
	serialTypes, err := readVarints(header)
	if err != nil {
		return nil, err
	}

	body := payload[headerLen:]
	rec := make(Record, 0, len(serialTypes))
	offset := 0
	for _, st := range serialTypes {
		col, size, err := decodeColumn(st, body[offset:], enc)
		if err != nil {
			return nil, err
		}
		if offset+size > len(body) {
			return nil, scanerr.New(scanerr.KindBadRecord, "column body runs past payload end")
		}
		rec = append(rec, col)
		offset += size
	}
	if offset != len(body) {
		return nil, scanerr.New(scanerr.KindBadRecord, "sum of column body sizes does not equal payload size minus header")
	}
	return rec, nil
}

// decodeColumn decodes a single column body per its serial type. It
// returns the column and the number of body bytes consumed.
func decodeColumn(serialType int64, body []byte, enc uint32) (Column, int, error) {
	switch {
	case serialType >= 12 && serialType%2 == 0:
		size := int((serialType - 12) / 2)
		if len(body) < size {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "blob column truncated")
		}
		blob := make([]byte, size)
		copy(blob, body[:size])
		return Column{Kind: ColBlob, Blob: blob}, size, nil
	case serialType >= 13 && serialType%2 == 1:
		size := int((serialType - 13) / 2)
		if len(body) < size {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "text column truncated")
		}
		text, err := decodeText(body[:size], enc)
		if err != nil {
			return Column{}, 0, err
		}
		return Column{Kind: ColText, Text: text}, size, nil
	}

	switch serialType {
	case 0:
		return Column{Kind: ColNull}, 0, nil
	case 1:
		if len(body) < 1 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "1-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: int64(int8(body[0]))}, 1, nil
	case 2:
		if len(body) < 2 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "2-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: int64(int16(binary.BigEndian.Uint16(body[:2])))}, 2, nil
	case 3:
		if len(body) < 3 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "3-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: signExtend(body[:3], 24)}, 3, nil
	case 4:
		if len(body) < 4 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "4-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: int64(int32(binary.BigEndian.Uint32(body[:4])))}, 4, nil
	case 5:
		if len(body) < 6 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "6-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: signExtend(body[:6], 48)}, 6, nil
	case 6:
		if len(body) < 8 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "8-byte integer truncated")
		}
		return Column{Kind: ColInt, Int: int64(binary.BigEndian.Uint64(body[:8]))}, 8, nil
	case 7:
		if len(body) < 8 {
			return Column{}, 0, scanerr.New(scanerr.KindTruncated, "8-byte float truncated")
		}
		return Column{Kind: ColFloat, Float: math.Float64frombits(binary.BigEndian.Uint64(body[:8]))}, 8, nil
	case 8:
		return Column{Kind: ColInt, Int: 0}, 0, nil
	case 9:
		return Column{Kind: ColInt, Int: 1}, 0, nil
	case 10, 11:
		return Column{}, 0, scanerr.New(scanerr.KindBadRecord, "reserved serial type 10/11 is not a valid column")
	default:
		return Column{}, 0, scanerr.New(scanerr.KindBadRecord, "unrecognized serial type")
	}
}

// signExtend interprets the big-endian bytes in b (3 or 6 of them) as a
// two's-complement integer of bitWidth bits and sign-extends it to int64.
func signExtend(b []byte, bitWidth uint) int64 {
	var v uint64
	for _, x := range b {
		v = (v << 8) | uint64(x)
	}
	signBit := uint64(1) << (bitWidth - 1)
	if v&signBit != 0 {
		v |= ^uint64(0) << bitWidth
	}
	return int64(v)
}

// decodeText interprets a TEXT column body per the file's declared
// encoding. UTF-8 is the mandatory common case; UTF-16 variants are
// supported for column payloads using the file header's declared
// encoding field.
func decodeText(body []byte, enc uint32) (string, error) {
	switch enc {
	case EncodingUTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(body)
		if err != nil {
			return "", scanerr.Wrap(scanerr.KindBadEncoding, "decode UTF-16LE text column", err)
		}
		return string(out), nil
	case EncodingUTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(body)
		if err != nil {
			return "", scanerr.Wrap(scanerr.KindBadEncoding, "decode UTF-16BE text column", err)
		}
		return string(out), nil
	default:
		return string(body), nil
	}
}

// renderColumnText renders a Column to its textual form for projection and
// comparison purposes: NULL -> "", integer -> decimal, float -> shortest
// round-tripping decimal, blob -> the literal "Blob", text -> raw. This is
// also the representation used by the index probe and WHERE-clause
// equality comparisons - rendered strings are compared, not typed values.
func renderColumnText(c Column) string {
	switch c.Kind {
	case ColNull:
		return ""
	case ColInt:
		return strconv.FormatInt(c.Int, 10)
	case ColFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ColBlob:
		return "Blob"
	case ColText:
		return c.Text
	default:
		return ""
	}
}
