// Package scanerr defines the typed error kinds surfaced while decoding a
// SQLite file or executing a query against it.
package scanerr

import "fmt"

// Kind classifies a ScanError so a caller can branch on the failure without
// string-matching the message.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	KindIo
	KindTruncated
	KindBadMagic
	KindBadFixedField
	KindBadEncoding
	KindBadPageType
	KindBadTreeShape
	KindBadRecord
	KindBadVarint
	KindNoSuchTable
	KindNoSuchColumn
	KindParseError
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindTruncated:
		return "Truncated"
	case KindBadMagic:
		return "BadMagic"
	case KindBadFixedField:
		return "BadFixedField"
	case KindBadEncoding:
		return "BadEncoding"
	case KindBadPageType:
		return "BadPageType"
	case KindBadTreeShape:
		return "BadTreeShape"
	case KindBadRecord:
		return "BadRecord"
	case KindBadVarint:
		return "BadVarint"
	case KindNoSuchTable:
		return "NoSuchTable"
	case KindNoSuchColumn:
		return "NoSuchColumn"
	case KindParseError:
		return "ParseError"
	default:
		return "Unknown"
	}
}

// ScanError wraps an underlying cause with a Kind so the top-level entry
// point can report which class of failure occurred.
type ScanError struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, msg string) *ScanError {
	return &ScanError{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *ScanError {
	return &ScanError{Kind: kind, Msg: msg, Err: err}
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is reports whether err is a *ScanError of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*ScanError)
	return ok && se.Kind == kind
}
