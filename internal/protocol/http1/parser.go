package http1

import (
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/method"
	"github.com/indigo-web/microrest/http/status"
	"github.com/indigo-web/microrest/internal/buffer"
	"github.com/indigo-web/utils/uf"
)

type parserState uint8

const (
	eLine parserState = iota + 1
	eLineDone
)

// Parser consumes the request line byte by byte, until the carriage return. The line feed
// following it is left untouched: it's the BodyReader's business, and GET requests don't
// need it at all, so a peer not sending it won't stall us.
type Parser struct {
	state   parserState
	request *http.Request
	line    buffer.Buffer
	path    buffer.Buffer
}

func NewParser(cfg *config.Config, request *http.Request) *Parser {
	return &Parser{
		state:   eLine,
		request: request,
		line:    buffer.New(cfg.URI.RequestLineSize),
		path:    buffer.New(cfg.URI.PathSize),
	}
}

// Parse feeds the data into the parser. Bytes past the request line are returned as extra.
func (p *Parser) Parse(data []byte) (done bool, extra []byte, err error) {
	for i, char := range data {
		if done, err = p.Feed(char); done || err != nil {
			return done, data[i+1:], err
		}
	}

	return false, nil, nil
}

// Feed consumes a single byte. Once done, the request Method and Path are filled. The Path
// references the internal buffer, so it's valid until Reset.
func (p *Parser) Feed(char byte) (done bool, err error) {
	if p.state == eLineDone {
		return true, nil
	}

	if char != '\r' {
		if !p.line.AppendByte(char) {
			return true, status.ErrRequestTooLarge
		}

		return false, nil
	}

	p.state = eLineDone

	return true, p.decode(p.line.Bytes())
}

func (p *Parser) decode(line []byte) error {
	m, offset := method.FromPrefix(line)
	if m == method.Unknown {
		return status.ErrMalformedRequest
	}

	for ; offset < len(line); offset++ {
		char := line[offset]
		if char == ' ' || char == 0 {
			break
		}

		if !p.path.AppendByte(char) {
			return status.ErrRequestTooLarge
		}
	}

	if p.path.Len() == 0 {
		return status.ErrMalformedRequest
	}

	p.request.Method = m
	p.request.Path = uf.B2S(p.path.Bytes())

	return nil
}

// Reset prepares the parser for the next connection. Buffers are kept.
func (p *Parser) Reset() {
	p.state = eLine
	p.line.Clear()
	p.path.Clear()
}
