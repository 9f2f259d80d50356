package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrMalformedRequest = NewError(BadRequest, "malformed request")
	ErrMalformedBody    = NewError(BadRequest, "malformed body")
	ErrRequestTooLarge  = NewError(RequestEntityTooLarge, "request too large")
	ErrRequestTimeout   = NewError(RequestTimeout, "request timeout")
	ErrNotFound         = NewError(NotFound, "route not found")
	ErrConnectionLost   = NewError(CloseConnection, "connection lost")
	ErrHandlerPanic     = NewError(InternalServerError, "handler panicked")
)

// CodeOf extracts the code out of an HTTPError, possibly wrapped. Any other error
// results in InternalServerError.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}
