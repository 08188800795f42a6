// Package alphadberr defines the error type shared by every layer of the
// engine: a tagged code, a human message, and the version trace that was
// being walked when the error was raised.
package alphadberr

import "strings"

// Code identifies the well-known error conditions the engine can raise.
type Code string

const (
	CodeNotInitialized             Code = "not-initialized"
	CodeNoVersionNumber             Code = "no-version-number"
	CodeUpToDate                    Code = "up-to-date"
	CodeInvalidVersionNumber        Code = "invalid-version-number"
	CodeIncompleteVersionObject     Code = "incomplete-version-object"
	CodeIncompatibleVersionAttrs    Code = "incompatible-version-attributes"
	CodeMissingVersionNumber        Code = "missing-version-number"
	CodeInvalidDefaultDataIndex     Code = "invalid-default-data-index"
	CodeTemplateMismatch            Code = "template-mismatch"
	CodeUnknownDialect              Code = "unknown-dialect"
	CodeNotConnected                Code = "not-connected"
	CodeDatabaseDriver              Code = "database-driver"
)

// Error is the only error shape the engine produces. It never panics across
// a package boundary; every fallible path returns one of these instead.
type Error struct {
	Message      string
	Code         Code
	VersionTrace []string
}

func (e *Error) Error() string {
	if len(e.VersionTrace) == 0 {
		return e.Message
	}
	return e.Message + " (" + e.Trace() + ")"
}

// Trace renders the version trace joined with "->", e.g.
// "0.0.3->altertable->table:users->column:email".
func (e *Error) Trace() string {
	return strings.Join(e.VersionTrace, "->")
}

// New builds an Error with the given code, message, and trace segments.
func New(code Code, message string, trace ...string) *Error {
	return &Error{Message: message, Code: code, VersionTrace: trace}
}

// Wrap carries a lower-layer error (typically a database driver error)
// upward without altering its message.
func Wrap(code Code, err error, trace ...string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: err.Error(), Code: code, VersionTrace: trace}
}
