package transport

import (
	"errors"
	"net"
	"os"
	"time"

	"github.com/indigo-web/microrest/config"
)

// Listener hands out accepted connections one at a time.
type Listener interface {
	// Accept returns the next pending connection. ok is false if none is pending at the
	// moment, which isn't an error.
	Accept() (client Client, ok bool, err error)
	Close() error
}

// TCP is a Listener over the operating system's TCP stack.
type TCP struct {
	l    *net.TCPListener
	cfg  config.NET
	buff []byte
}

func NewTCP(cfg config.NET) *TCP {
	return &TCP{
		cfg:  cfg,
		buff: make([]byte, cfg.ReadBufferSize),
	}
}

func (t *TCP) Bind(addr string) error {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}

	t.l, err = net.ListenTCP("tcp", tcpaddr)
	return err
}

// Addr returns the bound address. Useful when bound to the port 0.
func (t *TCP) Addr() net.Addr {
	return t.l.Addr()
}

// Accept waits for a connection at most config.NET.AcceptPollPeriod.
func (t *TCP) Accept() (Client, bool, error) {
	if err := t.l.SetDeadline(time.Now().Add(t.cfg.AcceptPollPeriod)); err != nil {
		return nil, false, err
	}

	conn, err := t.l.Accept()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return NewClient(conn, conn.RemoteAddr().String(), t.cfg, t.buff), true, nil
}

func (t *TCP) Close() error {
	return t.l.Close()
}
