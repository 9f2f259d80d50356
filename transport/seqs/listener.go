// Package seqs adapts the listener of the soypat/seqs userspace TCP/IP stack, the one
// running on top of the CYW43439 wifi chip of a Pico W, to transport.Listener.
package seqs

import (
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/transport"
	"github.com/soypat/seqs/stacks"
)

var _ transport.Listener = new(Listener)

// Listener serves a single port of the stack. Only one connection is ever processed at a
// time, so a single pair of connection buffers is enough.
type Listener struct {
	l    *stacks.TCPListener
	port uint16
	cfg  config.NET
	buff []byte
}

// Per-connection buffers of the stack. They must fit a packet, so MTU minus the headers
// is the sane choice.
const (
	maxConnections = 2
	connBufSize    = 1024
)

// NewListener starts listening the port. The stack may keep handshaking up to
// maxConnections peers while the current one is served.
func NewListener(stack *stacks.PortStack, port uint16, netCfg config.NET) (*Listener, error) {
	l, err := stacks.NewTCPListener(stack, stacks.TCPListenerConfig{
		MaxConnections: maxConnections,
		ConnTxBufSize:  connBufSize,
		ConnRxBufSize:  connBufSize,
	})
	if err != nil {
		return nil, err
	}

	if err = l.StartListening(port); err != nil {
		return nil, err
	}

	return &Listener{
		l:    l,
		port: port,
		cfg:  netCfg,
		buff: make([]byte, netCfg.ReadBufferSize),
	}, nil
}

// Accept blocks until the stack establishes a connection. Unlike transport.TCP it never
// reports ok == false, so a tick over this listener waits for a peer.
func (l *Listener) Accept() (transport.Client, bool, error) {
	conn, err := l.l.Accept()
	if err != nil {
		return nil, false, err
	}

	return transport.NewClient(conn, conn.RemoteAddr().String(), l.cfg, l.buff), true, nil
}

// Close releases the port on the stack. TCPListener.Close reports "already closed" on an
// open listener, so the port is closed through the stack directly.
func (l *Listener) Close() error {
	return l.l.PortStack().CloseTCP(l.port)
}
