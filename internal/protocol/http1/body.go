package http1

import (
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/status"
	"github.com/indigo-web/microrest/internal/buffer"
)

type bodyState uint8

const (
	eRequestLineLF bodyState = iota + 1
	eHeaders
	ePayload
	eBodyDone
)

// BodyReader consumes what's left of a POST request after its request line. Headers are
// skipped up to the blank line without even looking at them, then the payload is captured
// until its braces balance out. CR, LF and space bytes of the payload are dropped, wherever
// they are.
type BodyReader struct {
	state    bodyState
	lineLen  int
	lastCR   bool
	space    int
	maxSpace int
	depth    int
	request  *http.Request
	payload  buffer.Buffer
}

func NewBodyReader(cfg *config.Config, request *http.Request) *BodyReader {
	return &BodyReader{
		state:    eRequestLineLF,
		maxSpace: cfg.Headers.MaxSpace,
		request:  request,
		payload:  buffer.New(cfg.Body.MaxSize),
	}
}

// Parse feeds the data into the reader. Bytes past the payload are returned as extra.
func (b *BodyReader) Parse(data []byte) (done bool, extra []byte, err error) {
	for i, char := range data {
		if done, err = b.Feed(char); done || err != nil {
			return done, data[i+1:], err
		}
	}

	return false, nil, nil
}

// Feed consumes a single byte. Once done, the request Payload is filled. It references the
// internal buffer, so it's valid until Reset.
func (b *BodyReader) Feed(char byte) (done bool, err error) {
	switch b.state {
	case eRequestLineLF:
		b.state = eHeaders
		if char == '\n' {
			return false, nil
		}

		return b.header(char)
	case eHeaders:
		return b.header(char)
	case ePayload:
		return b.capture(char)
	case eBodyDone:
		return true, nil
	default:
		panic("unreachable code")
	}
}

func (b *BodyReader) header(char byte) (done bool, err error) {
	if b.space++; b.space > b.maxSpace {
		return true, status.ErrRequestTooLarge
	}

	// a blank line is the one consisting of CRLF only
	if char != '\n' {
		b.lineLen++
		b.lastCR = char == '\r'
		return false, nil
	}

	if b.lineLen == 1 && b.lastCR {
		b.state = ePayload
	}

	b.lineLen = 0
	b.lastCR = false

	return false, nil
}

func (b *BodyReader) capture(char byte) (done bool, err error) {
	switch char {
	case '\r', '\n', ' ':
		return false, nil
	case '{':
		b.depth++
	case '}':
		if b.depth == 0 {
			return true, status.ErrMalformedBody
		}

		b.depth--
	}

	if !b.payload.AppendByte(char) {
		return true, status.ErrRequestTooLarge
	}

	if char == '}' && b.depth == 0 {
		b.state = eBodyDone
		b.request.Payload = b.payload.Bytes()
		return true, nil
	}

	return false, nil
}

// Depth returns the current brace nesting of the payload.
func (b *BodyReader) Depth() int {
	return b.depth
}

// Reset prepares the reader for the next connection. The buffer is kept.
func (b *BodyReader) Reset() {
	b.state = eRequestLineLF
	b.lineLen = 0
	b.lastCR = false
	b.space = 0
	b.depth = 0
	b.payload.Clear()
}
