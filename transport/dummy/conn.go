package dummy

import (
	"io"
	"time"
)

// Conn is an in-memory transport.Conn. Every Read returns the next piece of the data,
// then io.EOF. Writes are accumulated in Data.
type Conn struct {
	Data      []byte
	Closed    bool
	// WriteClosed is set by CloseWrite.
	WriteClosed bool
	Deadlines []time.Time
	pieces    [][]byte
	pointer   int
}

func NewConn(pieces ...[]byte) *Conn {
	return &Conn{pieces: pieces}
}

func (c *Conn) Read(b []byte) (n int, err error) {
	if c.pointer >= len(c.pieces) {
		return 0, io.EOF
	}

	n = copy(b, c.pieces[c.pointer])
	if n < len(c.pieces[c.pointer]) {
		c.pieces[c.pointer] = c.pieces[c.pointer][n:]
	} else {
		c.pointer++
	}

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	c.Data = append(c.Data, b...)

	return len(b), nil
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

// CloseWrite half-closes the conn, like *net.TCPConn does.
func (c *Conn) CloseWrite() error {
	c.WriteClosed = true
	return nil
}

// Unread returns the number of bytes no Read has returned yet.
func (c *Conn) Unread() (n int) {
	for _, piece := range c.pieces[c.pointer:] {
		n += len(piece)
	}

	return n
}

func (c *Conn) SetDeadline(t time.Time) error {
	c.Deadlines = append(c.Deadlines, t)
	return nil
}
