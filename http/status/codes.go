package status

import "strconv"

type (
	Code   uint16
	Status string
)

// The subset of HTTP status codes the dispatcher ever responds or aborts with.
const (
	OK Code = 200 // RFC 9110, 15.3.1

	BadRequest            Code = 400 // RFC 9110, 15.5.1
	NotFound              Code = 404 // RFC 9110, 15.5.5
	RequestTimeout        Code = 408 // RFC 9110, 15.5.9
	RequestEntityTooLarge Code = 413 // RFC 9110, 15.5.14

	InternalServerError Code = 500 // RFC 9110, 15.6.1
)

// CloseConnection isn't a real status code. It marks errors after which nothing is
// written back and the connection is just closed.
const CloseConnection Code = 1

// KnownCodes lists every code Text has a name for.
var KnownCodes = []Code{
	OK, BadRequest, NotFound, RequestTimeout, RequestEntityTooLarge, InternalServerError,
}

// Text returns a text for the HTTP status code.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case BadRequest:
		return "Bad Request"
	case NotFound:
		return "Not Found"
	case RequestTimeout:
		return "Request Timeout"
	case RequestEntityTooLarge:
		return "Request Entity Too Large"
	case InternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown Status Code"
	}
}

// StringCode returns the decimal representation of the code.
func StringCode(code Code) string {
	return strconv.Itoa(int(code))
}
