package dummy

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/indigo-web/microrest/transport"
)

var _ transport.Client = new(Client)

// Client is an in-memory transport.Client, returning the bytes it was initialised with and
// recording everything written back.
type Client struct {
	data        []byte
	pointer     int
	written     []byte
	closed      int
	interrupted atomic.Bool
	stall       bool
	remote      string
}

func NewClient(data ...[]byte) *Client {
	var joined []byte
	for _, piece := range data {
		joined = append(joined, piece...)
	}

	return &Client{
		data:   joined,
		remote: "dummy",
	}
}

// Stall makes the client act as a peer that stopped sending without disconnecting: once
// the data is exhausted, reads fail with os.ErrDeadlineExceeded instead of io.EOF.
func (c *Client) Stall() *Client {
	c.stall = true
	return c
}

func (c *Client) ReadByte() (byte, error) {
	if c.closed > 0 {
		return 0, io.ErrClosedPipe
	}

	if c.interrupted.Load() {
		return 0, os.ErrDeadlineExceeded
	}

	if c.pointer >= len(c.data) {
		if c.stall {
			return 0, os.ErrDeadlineExceeded
		}

		return 0, io.EOF
	}

	char := c.data[c.pointer]
	c.pointer++

	return char, nil
}

func (c *Client) Buffered() int {
	return len(c.data) - c.pointer
}

func (c *Client) Write(b []byte) (int, error) {
	c.written = append(c.written, b...)
	return len(b), nil
}

func (c *Client) WriteLine(text string) error {
	c.written = append(append(c.written, text...), '\r', '\n')
	return nil
}

func (c *Client) Interrupt() {
	c.interrupted.Store(true)
}

func (c *Client) Remote() string {
	return c.remote
}

func (c *Client) Close() error {
	c.closed++
	return nil
}

// Written returns everything written into the client.
func (c *Client) Written() string {
	return string(c.written)
}

// Closed reports how many times the client was closed.
func (c *Client) Closed() int {
	return c.closed
}

// Listener is a transport.Listener handing out the clients it was initialised with.
type Listener struct {
	clients []transport.Client
	Err     error
	closed  bool
}

func NewListener(clients ...transport.Client) *Listener {
	return &Listener{clients: clients}
}

func (l *Listener) Accept() (transport.Client, bool, error) {
	if l.Err != nil {
		return nil, false, l.Err
	}

	if len(l.clients) == 0 {
		return nil, false, nil
	}

	client := l.clients[0]
	l.clients = l.clients[1:]

	return client, true, nil
}

// Pending returns the number of connections not accepted yet.
func (l *Listener) Pending() int {
	return len(l.clients)
}

// Closed reports whether the listener was closed.
func (l *Listener) Closed() bool {
	return l.closed
}

func (l *Listener) Close() error {
	l.closed = true
	return nil
}
