package http

import (
	"github.com/indigo-web/microrest/http/status"
	"github.com/indigo-web/microrest/transport"
	json "github.com/json-iterator/go"
)

const protocol = "HTTP/1.1 "

var headerFields = []string{
	"Content-Type: application/json",
	"Access-Control-Allow-Origin: *",
	"Connection: Keep-Alive",
	"",
}

type (
	errorStatus struct {
		Status status.Code `json:"status"`
	}

	errorBody struct {
		Message string      `json:"message"`
		Error   errorStatus `json:"error"`
	}
)

// Response is the reply sink handed to handlers. It writes straight into the connection,
// nothing is buffered.
type Response struct {
	client     transport.Client
	strict     bool
	headerSent bool
}

// NewResponse returns a sink writing into the client. If strict is set, errors are
// responded with their real status line instead of 200 OK.
func NewResponse(client transport.Client, strict bool) *Response {
	return &Response{
		client: client,
		strict: strict,
	}
}

// Header writes the success header. Only the first call writes anything.
func (r *Response) Header() error {
	return r.header(status.OK)
}

func (r *Response) header(code status.Code) error {
	if r.headerSent {
		return nil
	}

	r.headerSent = true
	if !r.strict {
		code = status.OK
	}

	err := r.client.WriteLine(protocol + status.StringCode(code) + " " + string(status.Text(code)))
	if err != nil {
		return err
	}

	for _, field := range headerFields {
		if err = r.client.WriteLine(field); err != nil {
			return err
		}
	}

	return nil
}

// HeaderSent reports whether the header was already written.
func (r *Response) HeaderSent() bool {
	return r.headerSent
}

// WriteLine writes the text followed by CRLF.
func (r *Response) WriteLine(text string) error {
	return r.client.WriteLine(text)
}

func (r *Response) Write(b []byte) (int, error) {
	return r.client.Write(b)
}

// JSON serializes the model and writes it as a single line.
func (r *Response) JSON(model any) error {
	data, err := json.Marshal(model)
	if err != nil {
		return err
	}

	if _, err = r.client.Write(data); err != nil {
		return err
	}

	return r.client.WriteLine("")
}

// NotFound writes the fixed not-found reply.
func (r *Response) NotFound() error {
	return r.Error(status.ErrNotFound)
}

// Error writes the header followed by a JSON body describing the error, e.g.
// {"message":"Route not found","error":{"status":404}}
func (r *Response) Error(err error) error {
	code := status.CodeOf(err)
	if werr := r.header(code); werr != nil {
		return werr
	}

	return r.JSON(errorBody{
		Message: errorMessage(code),
		Error:   errorStatus{Status: code},
	})
}

func errorMessage(code status.Code) string {
	switch code {
	case status.NotFound:
		return "Route not found"
	case status.BadRequest:
		return "Malformed request"
	case status.RequestEntityTooLarge:
		return "Request too large"
	case status.RequestTimeout:
		return "Request timeout"
	default:
		return "Internal error"
	}
}
