package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

const (
	serverHandshakePrefix = "server"
	clientHandshakePrefix = "client"
)

// ServerHandshake is the first frame a server sends on a link it dialed.
func ServerHandshake(name string) string {
	return fmt.Sprintf("Server %s", name)
}

// ClientHandshake is the first frame a client sends on a link it dialed.
func ClientHandshake(name string) string {
	return fmt.Sprintf("Client '%s'", name)
}

// IsServerHandshake verify if the frame was sent by a server.
func IsServerHandshake(frame string) bool {
	return strings.HasPrefix(strings.ToLower(frame), serverHandshakePrefix)
}

// HandshakeName extracts the node name from a handshake frame.
func HandshakeName(frame string) string {
	name := frame
	lower := strings.ToLower(frame)
	switch {
	case strings.HasPrefix(lower, serverHandshakePrefix):
		name = frame[len(serverHandshakePrefix):]
	case strings.HasPrefix(lower, clientHandshakePrefix):
		name = frame[len(clientHandshakePrefix):]
	}
	return strings.Trim(strings.TrimSpace(name), "'")
}

// PeerRegistry holds the links a node dialed, at most one for each
// configured peer. A peer that could not be reached during the
// bootstrap is absent.
type PeerRegistry struct {
	// Handshake sent on every new link.
	handshake string

	// Configured peers in configuration order.
	peers []types.ServerInfo

	dialer      Dialer
	dialTimeout time.Duration

	mutex  *sync.RWMutex
	links  map[string]*Link
	closed bool

	log hclog.Logger
}

// NewPeerRegistry creates an empty registry for the given peers.
func NewPeerRegistry(handshake string, peers []types.ServerInfo, dialer Dialer, dialTimeout time.Duration, log hclog.Logger) *PeerRegistry {
	return &PeerRegistry{
		handshake:   handshake,
		peers:       peers,
		dialer:      dialer,
		dialTimeout: dialTimeout,
		mutex:       &sync.RWMutex{},
		links:       make(map[string]*Link),
		log:         log,
	}
}

// ConnectAll dials every configured peer that is not linked yet. It
// tries at most maxTrials rounds, waiting backoff between rounds.
// Returns how many peers are linked, failing to link some of
// them is not an error.
func (p *PeerRegistry) ConnectAll(ctx context.Context, maxTrials int, backoff time.Duration) int {
	for trial := 1; trial <= maxTrials && ctx.Err() == nil; trial++ {
		for _, peer := range p.peers {
			if _, ok := p.Link(peer.Name); ok {
				continue
			}

			if err := p.connect(peer); err != nil {
				p.log.Debug("failed connecting", "peer", peer.Name, "trial", trial, "error", err)
			}
		}

		if p.Size() == len(p.peers) {
			break
		}

		if trial < maxTrials {
			select {
			case <-ctx.Done():
				return p.Size()
			case <-time.After(backoff):
			}
		}
	}

	size := p.Size()
	if size < len(p.peers) {
		p.log.Warn("not every peer is linked", "linked", size, "configured", len(p.peers))
	} else {
		p.log.Info("linked to every peer", "linked", size)
	}
	return size
}

func (p *PeerRegistry) connect(peer types.ServerInfo) error {
	conn, err := p.dialer.Dial(peer.Endpoint(), p.dialTimeout)
	if err != nil {
		return err
	}

	link := NewLink(peer.Name, conn, p.log)
	if err := link.SendRaw(p.handshake); err != nil {
		link.Close()
		return err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		link.Close()
		return types.ErrNodeClosed
	}
	p.links[peer.Name] = link
	p.log.Info("linked", "peer", peer.Name, "address", peer.Endpoint())
	return nil
}

// Link returns the link to the peer, if present.
func (p *PeerRegistry) Link(name string) (*Link, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	link, ok := p.links[name]
	return link, ok
}

// Send writes the message on the link to the given peer.
func (p *PeerRegistry) Send(name string, m types.Message) error {
	link, ok := p.Link(name)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrLinkNotFound, name)
	}
	return link.Send(m)
}

// Broadcast sends the message to every linked peer. A failure on
// one link does not stop the others. Returns how many peers the
// message was written to.
func (p *PeerRegistry) Broadcast(m types.Message) int {
	sent := 0
	for _, name := range p.Names() {
		if err := p.Send(name, m); err != nil {
			p.log.Warn("failed broadcasting", "peer", name, "type", m.Type, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Names of the linked peers in configuration order.
func (p *PeerRegistry) Names() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	var names []string
	for _, peer := range p.peers {
		if _, ok := p.links[peer.Name]; ok {
			names = append(names, peer.Name)
		}
	}
	return names
}

// Size is how many peers are linked.
func (p *PeerRegistry) Size() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.links)
}

// Close every link.
func (p *PeerRegistry) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
	for name, link := range p.links {
		if err := link.Close(); err != nil {
			p.log.Debug("failed closing link", "peer", name, "error", err)
		}
	}
}
