package common

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	// SchemaMismatch indicates a schema or type mismatch at a tuple, page,
	// or operator boundary. Fatal for the operation.
	SchemaMismatch ErrorCode = iota
	// InvalidPage indicates a page number out of range in a file read/write.
	InvalidPage
	// PageFull indicates an insert into a page with no empty slots. The
	// heap file recovers by trying another page.
	PageFull
	// SlotEmpty indicates a delete of a tuple whose slot bit is already clear.
	SlotEmpty
	// NotOnPage indicates a delete of a tuple that lives on a different page.
	NotOnPage
	// TransactionAborted is raised on lock timeout; the transaction must be
	// rolled back by the driver.
	TransactionAborted
	// BufferFull indicates that eviction could not find a clean victim
	// (every cached page is dirty under the NO-STEAL policy).
	BufferFull
	// OutOfRange indicates a histogram value outside [min, max], or a
	// corrupt field length on deserialization.
	OutOfRange
	// NoSuchObject indicates a request for a table that does not exist in
	// the catalog.
	NoSuchObject
	// DuplicateObject indicates an attempt to register a table id twice.
	DuplicateObject
)

func (ec ErrorCode) String() string {
	switch ec {
	case SchemaMismatch:
		return "SchemaMismatch"
	case InvalidPage:
		return "InvalidPage"
	case PageFull:
		return "PageFull"
	case SlotEmpty:
		return "SlotEmpty"
	case NotOnPage:
		return "NotOnPage"
	case TransactionAborted:
		return "TransactionAborted"
	case BufferFull:
		return "BufferFull"
	case OutOfRange:
		return "OutOfRange"
	case NoSuchObject:
		return "NoSuchObject"
	case DuplicateObject:
		return "DuplicateObject"
	}
	return "unknown"
}

// DBError is the custom error type for the database engine. It wraps a
// specific ErrorCode with a detailed message so that callers can make
// recovery decisions (retry another page, abort the transaction, surface to
// the driver) without string matching.
type DBError struct {
	Code      ErrorCode
	ErrString string
}

func (e DBError) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// NewError builds a DBError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) DBError {
	return DBError{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is (or wraps) a DBError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var dbe DBError
	return errors.As(err, &dbe) && dbe.Code == code
}
