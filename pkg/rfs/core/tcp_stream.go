package core

import (
	"errors"
	"net"
	"time"
)

var ErrNotTCP = errors.New("local address is not TCP")

// StreamLayer is the network primitive links are built on. It
// accepts incoming connections and dials outgoing ones.
type StreamLayer interface {
	net.Listener

	// Dial opens a connection to the given `host:port`.
	Dial(address string, timeout time.Duration) (net.Conn, error)
}

// TCPStreamLayer implements StreamLayer for plain TCP.
type TCPStreamLayer struct {
	listener *net.TCPListener
}

// NewTCPStreamLayer starts listening on the given address.
func NewTCPStreamLayer(address string) (*TCPStreamLayer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}

	tcp, ok := lis.(*net.TCPListener)
	if !ok {
		lis.Close()
		return nil, ErrNotTCP
	}
	return &TCPStreamLayer{listener: tcp}, nil
}

// Dial implements the StreamLayer interface.
func (t *TCPStreamLayer) Dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", address, timeout)
}

// Accept implements the net.Listener interface.
func (t *TCPStreamLayer) Accept() (net.Conn, error) {
	return t.listener.Accept()
}

// Close implements the net.Listener interface.
func (t *TCPStreamLayer) Close() error {
	return t.listener.Close()
}

// Addr implements the net.Listener interface.
func (t *TCPStreamLayer) Addr() net.Addr {
	return t.listener.Addr()
}

// Dialer only opens outgoing connections, used by clients
// which never accept any.
type Dialer interface {
	Dial(address string, timeout time.Duration) (net.Conn, error)
}

// TCPDialer implements Dialer for plain TCP.
type TCPDialer struct{}

// Dial implements the Dialer interface.
func (TCPDialer) Dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", address, timeout)
}
