package core

import (
	"net"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

func testLogger(t *testing.T) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  t.Name(),
		Level: hclog.Debug,
	})
}

// The remote side of a link, collecting every message written to it.
type pipePeer struct {
	conn     net.Conn
	received chan types.Message
	group    *sync.WaitGroup
}

func newPipePeer(t *testing.T, name string, registry *PeerRegistry) *pipePeer {
	local, remote := net.Pipe()
	registry.mutex.Lock()
	registry.peers = append(registry.peers, types.ServerInfo{Name: name, Address: "pipe"})
	registry.links[name] = NewLink(name, local, testLogger(t))
	registry.mutex.Unlock()

	p := &pipePeer{
		conn:     remote,
		received: make(chan types.Message, 128),
		group:    &sync.WaitGroup{},
	}
	p.group.Add(1)
	go func() {
		defer p.group.Done()
		defer close(p.received)
		for {
			frame, err := ReadFrame(remote)
			if err != nil {
				return
			}

			m, err := types.ParseMessage(string(frame))
			if err != nil {
				t.Errorf("peer %s received malformed %q. %v", name, frame, err)
				return
			}
			p.received <- m
		}
	}()
	return p
}

func (p *pipePeer) close() {
	p.conn.Close()
	p.group.Wait()
}
