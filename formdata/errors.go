package formdata

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrLimitExceeded matches every *LimitError with errors.Is.
	ErrLimitExceeded   = errors.New("form limit exceeded")
	ErrNotMultipart    = errors.New("content type is not multipart/form-data")
	ErrMissingBoundary = errors.New("no multipart boundary")
)

type LimitKind int

const (
	LimitFieldName LimitKind = iota + 1
	LimitFieldValue
	LimitFields
	LimitFileSize
	LimitFiles
	LimitParts
	LimitHeaderPairs
)

func (k LimitKind) String() string {
	switch k {
	case LimitFieldName:
		return "field name size"
	case LimitFieldValue:
		return "field value size"
	case LimitFields:
		return "field count"
	case LimitFileSize:
		return "file size"
	case LimitFiles:
		return "file count"
	case LimitParts:
		return "part count"
	case LimitHeaderPairs:
		return "header pairs"
	default:
		return fmt.Sprintf("LimitKind(%d)", int(k))
	}
}

// LimitError reports a violated decode limit. Name is the form name of the
// offending part.
type LimitError struct {
	Kind  LimitKind
	Name  string
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded at part '%s' (limit=%d)", e.Kind, e.Name, e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}
