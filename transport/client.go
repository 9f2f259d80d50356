package transport

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/indigo-web/microrest/config"
)

// Conn is the byte stream a network stack hands over for every accepted peer. net.Conn
// satisfies it, so does the TCP connection of a userspace stack.
type Conn interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
}

// Client is a single accepted connection, read strictly byte by byte.
type Client interface {
	// ReadByte blocks until a byte is available. io.EOF (or net.ErrClosed) means the peer
	// is gone, os.ErrDeadlineExceeded means it kept silent for too long or the read was
	// interrupted.
	ReadByte() (byte, error)
	// Buffered returns the number of bytes ReadByte can return without blocking.
	Buffered() int
	Write([]byte) (int, error)
	// WriteLine writes the text terminated by CRLF.
	WriteLine(text string) error
	// Interrupt makes the current and every further ReadByte fail immediately. Safe to
	// call from another goroutine.
	Interrupt()
	Remote() string
	// Close discards whatever the peer has still sent, within config.NET limits, and closes
	// the connection.
	Close() error
}

// writeCloser is implemented by connections able to half-close, like *net.TCPConn.
type writeCloser interface {
	CloseWrite() error
}

type client struct {
	conn        Conn
	remote      string
	buff        []byte
	pending     []byte
	pendingErr  error
	line        []byte
	cfg         config.NET
	interrupted atomic.Bool
}

// NewClient wraps the conn. Reads are done in chunks of len(buff), every one of them bounded
// by config.NET.ReadTimeout. The buff may be shared among clients, as long as they aren't
// used simultaneously.
func NewClient(conn Conn, remote string, cfg config.NET, buff []byte) Client {
	return &client{
		conn:   conn,
		remote: remote,
		buff:   buff,
		cfg:    cfg,
	}
}

func (c *client) ReadByte() (byte, error) {
	for len(c.pending) == 0 {
		if c.pendingErr != nil {
			return 0, c.pendingErr
		}

		if err := c.fill(); err != nil {
			return 0, err
		}
	}

	char := c.pending[0]
	c.pending = c.pending[1:]

	return char, nil
}

func (c *client) fill() error {
	if c.interrupted.Load() {
		return os.ErrDeadlineExceeded
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return err
	}

	// the flag must be checked again: Interrupt could have happened in between, and
	// its deadline is just overridden by ours
	if c.interrupted.Load() {
		return os.ErrDeadlineExceeded
	}

	n, err := c.conn.Read(c.buff)
	c.pending = c.buff[:n]
	if n > 0 {
		// an error coming together with data is delivered after the data
		c.pendingErr = err
		return nil
	}

	return err
}

func (c *client) Buffered() int {
	return len(c.pending)
}

func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

func (c *client) WriteLine(text string) error {
	c.line = append(append(c.line[:0], text...), '\r', '\n')
	_, err := c.conn.Write(c.line)

	return err
}

func (c *client) Interrupt() {
	c.interrupted.Store(true)
	_ = c.conn.SetDeadline(time.Unix(1, 0))
}

func (c *client) Remote() string {
	return c.remote
}

func (c *client) Close() error {
	c.drain()
	return c.conn.Close()
}

// drain sends FIN first, so the peer gets the reply terminated, then reads out the rest of
// the request. Everything is bounded: a peer streaming endlessly still gets reset.
func (c *client) drain() {
	if c.interrupted.Load() || c.pendingErr != nil {
		return
	}

	if wc, ok := c.conn.(writeCloser); ok {
		_ = wc.CloseWrite()
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.cfg.DrainTimeout)); err != nil {
		return
	}

	c.pending = nil
	for left := c.cfg.DrainSize; left > 0; {
		n, err := c.conn.Read(c.buff)
		if err != nil {
			return
		}

		left -= n
	}
}
