package http1

import (
	"errors"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/method"
	"github.com/indigo-web/microrest/http/status"
	"github.com/stretchr/testify/require"
)

func getParser(cfg *config.Config) (*Parser, *BodyReader, *http.Request) {
	request := new(http.Request)
	return NewParser(cfg, request), NewBodyReader(cfg, request), request
}

type feeder interface {
	Parse(data []byte) (done bool, extra []byte, err error)
}

func splitIntoParts(req []byte, n int) (parts [][]byte) {
	for i := 0; i < len(req); i += n {
		end := i + n
		if end > len(req) {
			end = len(req)
		}

		parts = append(parts, req[i:end])
	}

	return parts
}

func feedPartially(p feeder, raw []byte, n int) (done bool, extra []byte, err error) {
	parts := splitIntoParts(raw, n)

	for i, chunk := range parts {
		done, extra, err = p.Parse(chunk)
		if err != nil {
			return done, extra, err
		}
		if done {
			if i+1 < len(parts) {
				return true, extra, errors.New("not all chunks were fed")
			}

			break
		}
	}

	return done, extra, err
}

// parseRequest runs the whole request through both parsers, the way the server does.
func parseRequest(p *Parser, b *BodyReader, request *http.Request, raw string) error {
	done, extra, err := p.Parse([]byte(raw))
	if err != nil {
		return err
	}
	if !done {
		return errors.New("request line isn't complete")
	}
	if !request.Method.HasBody() {
		return nil
	}

	done, _, err = b.Parse(extra)
	if err != nil {
		return err
	}
	if !done {
		return errors.New("body isn't complete")
	}

	return nil
}

func TestParser(t *testing.T) {
	cfg := config.Default()

	t.Run("simple GET", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		done, extra, err := parser.Parse([]byte("GET /status\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "\n", string(extra))
		require.Equal(t, method.GET, request.Method)
		require.Equal(t, "/status", request.Path)
	})

	t.Run("with protocol", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		done, _, err := parser.Parse([]byte("GET /status HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "/status", request.Path)
	})

	t.Run("no line feed needed", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		done, extra, err := parser.Parse([]byte("GET /status\r"))
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, extra)
		require.Equal(t, "/status", request.Path)
	})

	t.Run("simple POST", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		done, extra, err := parser.Parse([]byte("POST /data HTTP/1.1\r\n\r\n{}"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "\n\r\n{}", string(extra))
		require.Equal(t, method.POST, request.Method)
		require.Equal(t, "/data", request.Path)
	})

	t.Run("partially", func(t *testing.T) {
		// the parser is done at the carriage return, so nothing may follow it
		raw := []byte("GET /status HTTP/1.1\r")

		for n := 1; n < len(raw); n++ {
			parser, _, request := getParser(cfg)
			done, _, err := feedPartially(parser, raw, n)
			require.NoError(t, err)
			require.True(t, done)
			require.Equal(t, "/status", request.Path)
		}
	})

	t.Run("not done without carriage return", func(t *testing.T) {
		parser, _, _ := getParser(cfg)
		done, extra, err := parser.Parse([]byte("GET /status HTTP/1.1\n"))
		require.NoError(t, err)
		require.False(t, done)
		require.Empty(t, extra)
	})

	t.Run("path ends at null", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		_, _, err := parser.Parse([]byte("GET /status\x00garbage\r\n"))
		require.NoError(t, err)
		require.Equal(t, "/status", request.Path)
	})

	t.Run("byte after POST is skipped", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		_, _, err := parser.Parse([]byte("POSTX/data\r\n"))
		require.NoError(t, err)
		require.Equal(t, method.POST, request.Method)
		require.Equal(t, "/data", request.Path)
	})

	t.Run("reset", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		_, _, err := parser.Parse([]byte("GET /first\r\n"))
		require.NoError(t, err)

		parser.Reset()
		_, _, err = parser.Parse([]byte("POST /second\r\n"))
		require.NoError(t, err)
		require.Equal(t, method.POST, request.Method)
		require.Equal(t, "/second", request.Path)
	})

	t.Run("random paths", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			path := "/" + uniuri.NewLen(cfg.URI.PathSize-1)
			parser, _, request := getParser(cfg)
			_, _, err := feedPartially(parser, []byte("GET "+path+" HTTP/1.1\r"), 3)
			require.NoError(t, err)
			require.Equal(t, path, request.Path)
		}
	})
}

func TestParserErrors(t *testing.T) {
	cfg := config.Default()

	tcs := []struct {
		Name string
		Raw  string
		Err  error
	}{
		{"unknown method", "PUT /data HTTP/1.1\r\n", status.ErrMalformedRequest},
		{"lowercase method", "get /status\r\n", status.ErrMalformedRequest},
		{"too short", "GE\r\n", status.ErrMalformedRequest},
		{"blank line", "\r\n", status.ErrMalformedRequest},
		{"empty GET path", "GET \r\n", status.ErrMalformedRequest},
		{"empty GET path with protocol", "GET  HTTP/1.1\r\n", status.ErrMalformedRequest},
		{"bare POST", "POST\r\n", status.ErrMalformedRequest},
	}

	for _, tc := range tcs {
		t.Run(tc.Name, func(t *testing.T) {
			parser, _, request := getParser(cfg)
			done, _, err := parser.Parse([]byte(tc.Raw))
			require.True(t, done)
			require.ErrorIs(t, err, tc.Err)
			require.Equal(t, method.Unknown, request.Method)
		})
	}
}

func TestParserBounds(t *testing.T) {
	cfg := config.Default()
	cfg.URI.RequestLineSize = 32
	cfg.URI.PathSize = 8

	t.Run("path at capacity", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		path := "/" + strings.Repeat("a", cfg.URI.PathSize-1)
		_, _, err := parser.Parse([]byte("GET " + path + "\r\n"))
		require.NoError(t, err)
		require.Equal(t, path, request.Path)
	})

	t.Run("path past capacity", func(t *testing.T) {
		parser, _, request := getParser(cfg)
		path := "/" + strings.Repeat("a", cfg.URI.PathSize)
		done, _, err := parser.Parse([]byte("GET " + path + "\r\n"))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrRequestTooLarge)
		require.Empty(t, request.Path)
		require.Equal(t, cfg.URI.PathSize, parser.path.Len())
	})

	t.Run("line at capacity", func(t *testing.T) {
		parser, _, _ := getParser(cfg)
		line := "GET /a " + strings.Repeat("x", cfg.URI.RequestLineSize-len("GET /a "))
		done, _, err := parser.Parse([]byte(line + "\r"))
		require.NoError(t, err)
		require.True(t, done)
	})

	t.Run("line past capacity", func(t *testing.T) {
		parser, _, _ := getParser(cfg)
		line := "GET /a " + strings.Repeat("x", cfg.URI.RequestLineSize-len("GET /a ")+1)
		done, _, err := parser.Parse([]byte(line + "\r"))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrRequestTooLarge)
		require.Equal(t, cfg.URI.RequestLineSize, parser.line.Len())
	})
}

func TestBodyReader(t *testing.T) {
	cfg := config.Default()

	t.Run("flat", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		require.NoError(t, parseRequest(parser, body, request, "POST /data\r\n\r\n{\"a\":1}"))
		require.Equal(t, `{"a":1}`, request.Payload.String())
	})

	t.Run("nested", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		raw := "POST /data\r\n\r\n{\"a\":{\"b\":1}}"
		done, extra, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.True(t, done)

		// nesting goes up to 2 and unwinds
		maxDepth := 0
		for _, char := range extra {
			done, err = body.Feed(char)
			require.NoError(t, err)
			maxDepth = max(maxDepth, body.Depth())
			if done {
				break
			}
		}

		require.True(t, done)
		require.Equal(t, 2, maxDepth)
		require.Zero(t, body.Depth())
		require.Equal(t, `{"a":{"b":1}}`, request.Payload.String())
	})

	t.Run("headers are skipped", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		raw := "POST /data HTTP/1.1\r\n" +
			"Host: localhost\r\n" +
			"Content-Type: application/json\r\n" +
			"Content-Length: 100500\r\n" +
			"X-Braces: {}}}\r\n" +
			"\r\n" +
			"{\"led\": true}"
		require.NoError(t, parseRequest(parser, body, request, raw))
		require.Equal(t, `{"led":true}`, request.Payload.String())
	})

	t.Run("whitespace is stripped", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		raw := "POST /data\r\n\r\n\r\n  {\r\n  \"name\": \"a b\",\r\n  \"x\": [1, 2]\r\n}\r\n"
		require.NoError(t, parseRequest(parser, body, request, raw))
		require.Equal(t, `{"name":"ab","x":[1,2]}`, request.Payload.String())
	})

	t.Run("tabs are kept", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		require.NoError(t, parseRequest(parser, body, request, "POST /data\r\n\r\n{\t}"))
		require.Equal(t, "{\t}", request.Payload.String())
	})

	t.Run("bytes before the brace are kept", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		require.NoError(t, parseRequest(parser, body, request, "POST /data\r\n\r\nx{}"))
		require.Equal(t, "x{}", request.Payload.String())
	})

	t.Run("extra after the payload", func(t *testing.T) {
		_, body, request := getParser(cfg)
		done, extra, err := body.Parse([]byte("\n\r\n{}{}"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "{}", string(extra))
		require.Equal(t, "{}", request.Payload.String())
	})

	t.Run("partially", func(t *testing.T) {
		raw := []byte("\nHost: localhost\r\n\r\n{\"a\":{\"b\":[1,2,{\"c\":null}]}}")

		for n := 1; n < len(raw); n++ {
			_, body, request := getParser(cfg)
			done, _, err := feedPartially(body, raw, n)
			require.NoError(t, err)
			require.True(t, done)
			require.Equal(t, `{"a":{"b":[1,2,{"c":null}]}}`, request.Payload.String())
		}
	})

	t.Run("same stream twice", func(t *testing.T) {
		raw := "POST /data\r\nHost: x\r\n\r\n{ \"a\" : { \"b\" : 1 } }"
		parser, body, request := getParser(cfg)

		require.NoError(t, parseRequest(parser, body, request, raw))
		first := string(request.Payload)

		parser.Reset()
		body.Reset()
		request.Reset()
		require.NoError(t, parseRequest(parser, body, request, raw))
		require.Equal(t, first, string(request.Payload))
		require.Equal(t, `{"a":{"b":1}}`, first)
	})

	t.Run("never balanced", func(t *testing.T) {
		parser, body, request := getParser(cfg)
		err := parseRequest(parser, body, request, "POST /data\r\n\r\n{\"a\":1")
		require.EqualError(t, err, "body isn't complete")
		require.Equal(t, 1, body.Depth())
		require.Empty(t, request.Payload)
	})

	t.Run("no blank line yet", func(t *testing.T) {
		_, body, _ := getParser(cfg)
		done, _, err := body.Parse([]byte("\nHost: x\r\n{}\n\n"))
		require.NoError(t, err)
		require.False(t, done)
	})
}

func TestBodyReaderErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Body.MaxSize = 16
	cfg.Headers.MaxSpace = 32

	t.Run("underflow", func(t *testing.T) {
		_, body, request := getParser(cfg)
		done, _, err := body.Parse([]byte("\n\r\n}{"))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrMalformedBody)
		require.Empty(t, request.Payload)
	})

	t.Run("underflow after balance", func(t *testing.T) {
		_, body, _ := getParser(cfg)
		done, _, err := body.Parse([]byte("\n\r\nab}"))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrMalformedBody)
	})

	t.Run("payload at capacity", func(t *testing.T) {
		_, body, request := getParser(cfg)
		payload := `{"a":"` + strings.Repeat("x", cfg.Body.MaxSize-8) + `"}`
		require.Len(t, payload, cfg.Body.MaxSize)

		done, _, err := body.Parse([]byte("\n\r\n" + payload))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, payload, request.Payload.String())
	})

	t.Run("payload past capacity", func(t *testing.T) {
		_, body, request := getParser(cfg)
		payload := `{"a":"` + strings.Repeat("x", cfg.Body.MaxSize-7) + `"}`

		done, _, err := body.Parse([]byte("\n\r\n" + payload))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrRequestTooLarge)
		require.Empty(t, request.Payload)
		require.Equal(t, cfg.Body.MaxSize, body.payload.Len())
	})

	t.Run("whitespace doesn't count", func(t *testing.T) {
		_, body, request := getParser(cfg)
		payload := "{ " + strings.Repeat("1 ", cfg.Body.MaxSize-2) + "}"

		done, _, err := body.Parse([]byte("\n\r\n" + payload))
		require.NoError(t, err)
		require.True(t, done)
		require.Len(t, request.Payload, cfg.Body.MaxSize)
	})

	t.Run("too many headers", func(t *testing.T) {
		_, body, _ := getParser(cfg)
		headers := strings.Repeat("X-Header: value\r\n", 3)

		done, _, err := body.Parse([]byte("\n" + headers + "\r\n{}"))
		require.True(t, done)
		require.ErrorIs(t, err, status.ErrRequestTooLarge)
	})
}
