package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// Server is a replica node. It accepts links from peers and
// clients, links itself to every peer it can reach and runs the
// engine for each received message.
//
// A server only writes on the links it dialed and only reads on
// the links it accepted. The exception are client links, where the
// reply goes back on the same link the request came from.
type Server struct {
	name string

	clock    LogicalClock
	replica  *Replica
	registry *PeerRegistry
	engine   *Engine
	stream   StreamLayer
	invoker  Invoker
	protocol types.ProtocolConfiguration

	ctx    context.Context
	cancel context.CancelFunc

	// Connections accepted, closed when the server closes.
	mutex   *sync.Mutex
	inbound map[net.Conn]bool
	closed  bool

	log hclog.Logger
}

// NewServer creates the server on top of the given stream layer and
// starts accepting connections and linking to the peers. Peers that
// are not up yet are retried in background for a few rounds.
func NewServer(conf types.ServerConfiguration, stream StreamLayer) (*Server, error) {
	log := conf.Logger.Named(conf.Self.Name)
	replica, err := NewReplica(conf.Storage, conf.Protocol.DedupCacheSize, log.Named("replica"))
	if err != nil {
		return nil, err
	}

	if err := replica.Restore(); err != nil {
		return nil, err
	}

	clock := NewClock()
	registry := NewPeerRegistry(ServerHandshake(conf.Self.Name), conf.Peers, stream, conf.Protocol.DialTimeout, log.Named("links"))
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		name:     conf.Self.Name,
		clock:    clock,
		replica:  replica,
		registry: registry,
		engine:   NewEngine(conf.Self.Name, clock, replica, registry, conf.Protocol, log.Named("engine")),
		stream:   stream,
		invoker:  NewInvoker(),
		protocol: conf.Protocol,
		ctx:      ctx,
		cancel:   cancel,
		mutex:    &sync.Mutex{},
		inbound:  make(map[net.Conn]bool),
		log:      log,
	}

	s.invoker.Spawn(s.listen)
	s.invoker.Spawn(func() {
		s.registry.ConnectAll(s.ctx, s.protocol.ConnectTrials, s.protocol.ConnectBackoff)
	})
	s.log.Info("server started", "address", stream.Addr().String(), "peers", len(conf.Peers))
	return s, nil
}

// Listen for incoming connections.
func (s *Server) listen() {
	const baseDelay = 5 * time.Millisecond
	const maxDelay = 1 * time.Second

	var loopDelay time.Duration
	for {
		conn, err := s.stream.Accept()
		if err != nil {
			if loopDelay == 0 {
				loopDelay = baseDelay
			} else {
				loopDelay *= 2
			}

			if loopDelay > maxDelay {
				loopDelay = maxDelay
			}

			if s.ctx.Err() == nil {
				s.log.Error("failed accepting connection", "error", err)
			}

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(loopDelay):
				continue
			}
		}

		loopDelay = 0
		s.log.Debug("accepted connection", "remote", conn.RemoteAddr().String())
		if !s.invoker.Spawn(func() { s.handleConn(conn) }) {
			conn.Close()
		}
	}
}

// Handle an accepted connection for its whole lifespan. The first
// frame tells if the remote is a server or a client.
func (s *Server) handleConn(conn net.Conn) {
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)

	frame, err := ReadFrame(conn)
	if err != nil {
		s.log.Debug("connection closed before handshake", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	handshake := string(frame)
	link := NewLink(HandshakeName(handshake), conn, s.log)

	if IsServerHandshake(handshake) {
		s.log.Debug("peer linked", "peer", link.Remote())
		s.serverLoop(link)
	} else {
		s.log.Debug("client linked", "client", link.Remote())
		s.clientLoop(link)
	}
}

// Reads the coordination messages sent by a peer.
func (s *Server) serverLoop(link *Link) {
	for {
		m, err := link.Receive()
		if err != nil {
			s.linkFailed(link, err)
			return
		}

		if !m.Type.IsServerInternal() {
			s.log.Warn("peer sent unexpected message, dropping link", "peer", link.Remote(), "type", m.Type)
			return
		}

		s.clock.Observe(m.Timestamp)
		s.engine.Handle(m)
	}
}

// Serves the requests of a client, one at a time.
func (s *Server) clientLoop(link *Link) {
	for {
		m, err := link.Receive()
		if err != nil {
			s.linkFailed(link, err)
			return
		}

		s.clock.Observe(m.Timestamp)

		var reply types.Message
		switch m.Type {
		case types.ClientWriteRequest:
			reply, err = s.engine.Write(s.ctx, m)
			if err != nil {
				s.log.Error("failed coordinating write, dropping link", "client", link.Remote(), "payload", m.Payload, "error", err)
				return
			}
		case types.ClientReadRequest:
			reply = s.engine.Read(m)
		default:
			s.log.Warn("client sent unexpected message, dropping link", "client", link.Remote(), "type", m.Type)
			return
		}

		if err := link.Send(reply); err != nil {
			s.linkFailed(link, err)
			return
		}
	}
}

func (s *Server) linkFailed(link *Link, err error) {
	if s.ctx.Err() != nil || errors.Is(err, io.EOF) {
		s.log.Debug("link closed", "remote", link.Remote())
		return
	}
	s.log.Warn("link failed", "remote", link.Remote(), "error", err)
}

func (s *Server) track(conn net.Conn) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return false
	}
	s.inbound[conn] = true
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.inbound, conn)
	conn.Close()
}

// Name of the server.
func (s *Server) Name() string {
	return s.name
}

// Addr is the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.stream.Addr()
}

// Linked is how many peers this server has linked to.
func (s *Server) Linked() int {
	return s.registry.Size()
}

// Pending returns the request queue content.
func (s *Server) Pending() []types.Message {
	return s.engine.Pending()
}

// Time is the current logical time.
func (s *Server) Time() uint64 {
	return s.clock.Tock()
}

// Read the file directly from the local replica.
func (s *Server) Read(fileName string) (string, bool, error) {
	return s.replica.Read(fileName)
}

// Close stops accepting connections, closes every link and waits
// for every goroutine to finish. A write blocked waiting for
// admission is abandoned.
func (s *Server) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return types.ErrNodeClosed
	}
	s.closed = true
	for conn := range s.inbound {
		conn.Close()
	}
	s.mutex.Unlock()

	s.cancel()
	err := s.stream.Close()
	s.registry.Close()
	s.invoker.Stop()
	s.engine.Close()
	s.log.Info("server closed")
	return err
}
