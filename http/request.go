package http

import (
	"github.com/indigo-web/microrest/http/method"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Payload is the body of a POST request with all the CR, LF and space bytes stripped, so
// whitespace inside of string values is lost too. Its braces are guaranteed to be balanced,
// nothing more. It references the internal buffer and must not be retained after the
// handler returns.
type Payload []byte

// String returns the payload as a string without copying it.
func (p Payload) String() string {
	return uf.B2S(p)
}

// Empty reports whether there's no payload, which is always the case for GET requests.
func (p Payload) Empty() bool {
	return len(p) == 0
}

// JSON unmarshalls the payload into the model.
func (p Payload) JSON(model any) error {
	return json.Unmarshal(p, model)
}

// Handler produces the reply for a request. The success header is already written at
// the moment it's called.
type Handler func(resp *Response, payload Payload)

// Request is created fresh for every connection and lives until it's closed.
type Request struct {
	Method method.Method
	// Path starts from the slash and never contains spaces. Like the Payload, it references
	// the internal buffer.
	Path    string
	Payload Payload
	// Remote is the peer address, as reported by the network stack.
	Remote string
	// ID is a short random identifier of the connection, used to correlate log records.
	ID string
}

// Reset prepares the request to be reused.
func (r *Request) Reset() {
	*r = Request{}
}
