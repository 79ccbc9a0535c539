package ast

import (
	"errors"
	"fmt"
)

// ErrMalformedSchemaDocument matches any *MalformedDocumentError
var ErrMalformedSchemaDocument = errors.New("malformed schema document")

// MalformedDocumentError reports a missing or mistyped value in the tool's JSON output
type MalformedDocumentError struct {
	// Field is the path to the offending value, e.g. "operations[0].fields[2].type"
	Field  string
	Reason string
}

// Error implements the error interface
func (e *MalformedDocumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedSchemaDocument, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedSchemaDocument, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedSchemaDocument
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedSchemaDocument
}

func malformed(field, format string, args ...any) error {
	return &MalformedDocumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
