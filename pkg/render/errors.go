package render

import "errors"

// ErrRendering is the kind shared by every failure to produce a document.
var ErrRendering = errors.New("render: rendering failed")

// Error codes for rendering failures.
const (
	CodeInvalidTemplate = "INVALID_TEMPLATE"
	CodeRenderFailed    = "RENDER_FAILED"
	CodeRenderTimeout   = "RENDER_TIMEOUT"
	CodeEmptyOutput     = "EMPTY_OUTPUT"
	CodeUnsupported     = "UNSUPPORTED"
)

// Error represents a failure while rendering an invoice document.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := "render: " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports ErrRendering as the error kind.
func (e *Error) Is(target error) bool {
	return target == ErrRendering
}

// NewError creates a new Error.
func NewError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of a rendering error, or "" for other errors.
func CodeOf(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}
