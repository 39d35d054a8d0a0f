package litescan

import (
	"encoding/binary"

	"github.com/lindeneg/litescan/internal/scanerr"
)

const (
	// HeaderMagic is the required 16-byte signature at the start of a
	// SQLite database file.
	HeaderMagic = "SQLite format 3\x00"
	// FileHeaderSize is the size in bytes of the file header.
	FileHeaderSize = 100

	maxEmbeddedPayloadFraction = 64
	minEmbeddedPayloadFraction = 32
	leafPayloadFraction        = 32
)

// Text encodings as declared by the file header's encoding field.
const (
	EncodingUTF8    uint32 = 1
	EncodingUTF16LE uint32 = 2
	EncodingUTF16BE uint32 = 3
)

// FileHeader holds the parsed 100-byte SQLite database header.
type FileHeader struct {
	PageSize              uint32 // already normalized: stored 1 means 65536
	WriteVersion          uint8
	ReadVersion           uint8
	ReservedSpace         uint8
	FileChangeCounter     uint32
	DatabaseSizePages     uint32
	FirstFreelistTrunk    uint32
	FreelistPages         uint32
	SchemaCookie          uint32
	SchemaFormat          uint32
	DefaultPageCacheSize  uint32
	LargestAutoVacuumRoot uint32
	TextEncoding          uint32
	UserVersion           uint32
	IncrementalVacuum     uint32
	ApplicationID         uint32
	VersionValidFor       uint32
	SQLiteVersionNumber   uint32
}

// parseFileHeader validates and decodes the 100-byte file header. A file
// whose magic, fixed-fraction fields, reserved bytes, or schema-format
// number violate the format's constraints is rejected outright.
func parseFileHeader(buf []byte) (*FileHeader, error) {
	if len(buf) != FileHeaderSize {
		return nil, scanerr.New(scanerr.KindTruncated, "file header shorter than 100 bytes")
	}
	if string(buf[0:16]) != HeaderMagic {
		return nil, scanerr.New(scanerr.KindBadMagic, "missing SQLite format 3 signature")
	}

	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	pageSize := uint32(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}
	if pageSize < 512 || pageSize > 65536 || pageSize&(pageSize-1) != 0 {
		return nil, scanerr.New(scanerr.KindBadFixedField, "page size must be a power of two in [512, 65536]")
	}

	maxFrac := buf[21]
	minFrac := buf[22]
	leafFrac := buf[23]
	if maxFrac != maxEmbeddedPayloadFraction {
		return nil, scanerr.New(scanerr.KindBadFixedField, "maximum embedded payload fraction must be 64")
	}
	if minFrac != minEmbeddedPayloadFraction {
		return nil, scanerr.New(scanerr.KindBadFixedField, "minimum embedded payload fraction must be 32")
	}
	if leafFrac != leafPayloadFraction {
		return nil, scanerr.New(scanerr.KindBadFixedField, "leaf payload fraction must be 32")
	}

	schemaFormat := binary.BigEndian.Uint32(buf[44:48])
	if schemaFormat < 1 || schemaFormat > 4 {
		return nil, scanerr.New(scanerr.KindBadFixedField, "schema format number must be in [1,4]")
	}

	textEncoding := binary.BigEndian.Uint32(buf[56:60])
	if textEncoding < EncodingUTF8 || textEncoding > EncodingUTF16BE {
		return nil, scanerr.New(scanerr.KindBadEncoding, "text encoding must be 1 (UTF-8), 2 (UTF-16LE) or 3 (UTF-16BE)")
	}

	for _, b := range buf[72:92] {
		if b != 0 {
			return nil, scanerr.New(scanerr.KindBadFixedField, "reserved header bytes must be zero")
		}
	}

	h := &FileHeader{
		PageSize:              pageSize,
		WriteVersion:          buf[18],
		ReadVersion:           buf[19],
		ReservedSpace:         buf[20],
		FileChangeCounter:     binary.BigEndian.Uint32(buf[24:28]),
		DatabaseSizePages:     binary.BigEndian.Uint32(buf[28:32]),
		FirstFreelistTrunk:    binary.BigEndian.Uint32(buf[32:36]),
		FreelistPages:         binary.BigEndian.Uint32(buf[36:40]),
		SchemaCookie:          binary.BigEndian.Uint32(buf[40:44]),
		SchemaFormat:          schemaFormat,
		DefaultPageCacheSize:  binary.BigEndian.Uint32(buf[48:52]),
		LargestAutoVacuumRoot: binary.BigEndian.Uint32(buf[52:56]),
		TextEncoding:          textEncoding,
		UserVersion:           binary.BigEndian.Uint32(buf[60:64]),
		IncrementalVacuum:     binary.BigEndian.Uint32(buf[64:68]),
		ApplicationID:         binary.BigEndian.Uint32(buf[68:72]),
		VersionValidFor:       binary.BigEndian.Uint32(buf[92:96]),
		SQLiteVersionNumber:   binary.BigEndian.Uint32(buf[96:100]),
	}
	return h, nil
}
