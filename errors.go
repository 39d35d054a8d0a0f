package litescan

import "github.com/lindeneg/litescan/internal/scanerr"

// ErrorKind classifies a failure surfaced by this package.
type ErrorKind = scanerr.Kind

// Error kinds, re-exported so callers can branch on the failure kind
// without reaching into internal/scanerr.
const (
	ErrIo            = scanerr.KindIo
	ErrTruncated     = scanerr.KindTruncated
	ErrBadMagic      = scanerr.KindBadMagic
	ErrBadFixedField = scanerr.KindBadFixedField
	ErrBadEncoding   = scanerr.KindBadEncoding
	ErrBadPageType   = scanerr.KindBadPageType
	ErrBadTreeShape  = scanerr.KindBadTreeShape
	ErrBadRecord     = scanerr.KindBadRecord
	ErrBadVarint     = scanerr.KindBadVarint
	ErrNoSuchTable   = scanerr.KindNoSuchTable
	ErrNoSuchColumn  = scanerr.KindNoSuchColumn
	ErrParseError    = scanerr.KindParseError
)

// KindOf returns the ErrorKind of err if it is a scan error produced by
// this package, and false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	se, ok := err.(*scanerr.ScanError)
	if !ok {
		return scanerr.KindUnknown, false
	}
	return se.Kind, true
}
