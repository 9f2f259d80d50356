package config

import (
	"time"
)

type (
	URI struct {
		// RequestLineSize is the capacity of the buffer the whole request line is accumulated
		// into. The line is stored until the carriage return, so it must fit the method, the
		// path and the protocol. Exceeding it aborts the connection with status.ErrRequestTooLarge.
		RequestLineSize int
		// PathSize is the capacity of the buffer storing the extracted path. Must not exceed
		// the RequestLineSize, as the path is copied out of the request line.
		PathSize int
	}

	Headers struct {
		// MaxSpace limits how many bytes of headers of a write-method request can be skipped
		// before the blank line separating them from the body. Headers are never parsed, but
		// they still cost time, so the amount is bounded.
		MaxSpace int
	}

	Body struct {
		// MaxSize is the payload capacity in bytes. Stripped whitespace doesn't count.
		MaxSize int
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket. Bytes are handed to the parser one by one out of it.
		ReadBufferSize int
		// ReadTimeout bounds every single read from the connection. A peer stalling longer
		// than that gets its connection closed.
		ReadTimeout time.Duration
		// AcceptPollPeriod controls how long a single tick waits for a pending connection
		// before returning with nothing served.
		AcceptPollPeriod time.Duration
		// DrainTimeout bounds how long the unread rest of a request is discarded before the
		// connection is closed. Closing with unread data makes the kernel reset the connection,
		// which may destroy the reply before the peer reads it.
		DrainTimeout time.Duration
		// DrainSize is the maximal number of unread bytes discarded on close.
		DrainSize int
	}

	Reply struct {
		// StrictStatus makes not-found and error responses carry their real status line.
		// By default they are sent with the 200 OK header, which is what existing clients
		// of the device expect.
		StrictStatus bool `test:"nullable"`
	}
)

// Config holds limits, timeouts and reply policy of the dispatcher. All the buffers are
// allocated once, at their full capacity, and never grow.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	URI     URI
	Headers Headers
	Body    Body
	NET     NET
	Reply   Reply
}

// Default returns default config. Those are sized for a device with a few kilobytes of RAM
// to spare.
func Default() *Config {
	return &Config{
		URI: URI{
			RequestLineSize: 128,
			PathSize:        64,
		},
		Headers: Headers{
			MaxSpace: 1024,
		},
		Body: Body{
			MaxSize: 512,
		},
		NET: NET{
			ReadBufferSize:   256,
			ReadTimeout:      5 * time.Second,
			AcceptPollPeriod: 50 * time.Millisecond,
			DrainTimeout:     100 * time.Millisecond,
			DrainSize:        8192,
		},
		Reply: Reply{
			StrictStatus: false,
		},
	}
}
