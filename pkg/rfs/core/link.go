package core

import (
	"bufio"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// Link is a long lived connection to a remote node. Writes are
// serialized by the link itself, reads must be done by a
// single goroutine at a time.
type Link struct {
	// Name of the remote node, known after the handshake.
	remote string

	conn net.Conn
	r    *bufio.Reader

	// Serializes the writes on the connection.
	writeLock *sync.Mutex

	// Held for a whole request and reply exchange.
	exchangeLock *sync.Mutex

	log hclog.Logger
}

// NewLink wraps the connection.
func NewLink(remote string, conn net.Conn, log hclog.Logger) *Link {
	return &Link{
		remote:       remote,
		conn:         conn,
		r:            bufio.NewReader(conn),
		writeLock:    &sync.Mutex{},
		exchangeLock: &sync.Mutex{},
		log:          log,
	}
}

// Remote is the name of the node on the other side.
func (l *Link) Remote() string {
	return l.remote
}

// SendRaw writes a single frame with the given text.
func (l *Link) SendRaw(text string) error {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	return WriteFrame(l.conn, []byte(text))
}

// Send writes the message as a single frame.
func (l *Link) Send(m types.Message) error {
	l.log.Debug("sending", "to", l.remote, "message", m.String())
	return l.SendRaw(m.String())
}

// ReceiveRaw blocks until a whole frame is read.
func (l *Link) ReceiveRaw() (string, error) {
	content, err := ReadFrame(l.r)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Receive blocks until a message is read.
func (l *Link) Receive() (types.Message, error) {
	text, err := l.ReceiveRaw()
	if err != nil {
		return types.Message{}, err
	}

	m, err := types.ParseMessage(text)
	if err != nil {
		return types.Message{}, err
	}
	l.log.Debug("received", "from", l.remote, "message", text)
	return m, nil
}

// Exchange sends the request and waits for the reply. Concurrent
// exchanges on the same link do not interleave.
func (l *Link) Exchange(request types.Message) (types.Message, error) {
	l.exchangeLock.Lock()
	defer l.exchangeLock.Unlock()

	if err := l.Send(request); err != nil {
		return types.Message{}, err
	}
	return l.Receive()
}

// Close the underlying connection.
func (l *Link) Close() error {
	return l.conn.Close()
}
