package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// Engine coordinates the writes a server receives from clients and
// handles the coordination messages received from peers.
//
// A write passes through the critical session only when the
// acquire request is the head of the local queue and every linked
// peer is known to have moved past it. Once admitted, the write is
// applied locally and a sync is broadcast so every peer applies it
// too. Then the queue entries of the round are removed and a
// release is broadcast, so peers remove the acquire as well.
type Engine struct {
	// Name of the local server, used as sender.
	name string

	clock    LogicalClock
	queue    *RequestQueue
	replica  *Replica
	registry *PeerRegistry

	// Payloads with a round in progress on this server. The channel
	// is closed when the round ends. At most one round for each
	// payload runs at a time, so a response is always attributed to
	// the right round.
	rounds map[string]chan struct{}

	// Payloads of rounds already finished by this server, only to
	// tell a late response from an unexpected one.
	retired *ttlcache.Cache

	// Guards rounds and serializes retiring a round with enqueueing
	// responses.
	mutex *sync.Mutex

	// Interval between admission verifications.
	interval time.Duration

	log hclog.Logger
}

// NewEngine creates the engine for the local server.
func NewEngine(name string, clock LogicalClock, replica *Replica, registry *PeerRegistry, protocol types.ProtocolConfiguration, log hclog.Logger) *Engine {
	retired := ttlcache.NewCache()
	retired.SetTTL(protocol.RetiredTTL)
	return &Engine{
		name:     name,
		clock:    clock,
		queue:    NewRequestQueue(),
		replica:  replica,
		registry: registry,
		rounds:   make(map[string]chan struct{}),
		retired:  retired,
		mutex:    &sync.Mutex{},
		interval: protocol.AdmissionInterval,
		log:      log,
	}
}

// Write executes the whole round for a client write request and
// returns the acknowledgement for the client. Blocks until the
// request is admitted into the critical session or the context
// is cancelled. A write identical to one already in progress on
// this server waits for it to end before starting its own round.
func (e *Engine) Write(ctx context.Context, request types.Message) (types.Message, error) {
	payload := request.Payload
	acquire, done, err := e.begin(ctx, payload)
	if err != nil {
		return types.Message{}, err
	}
	defer e.end(payload, done)

	e.registry.Broadcast(acquire)
	e.log.Debug("acquiring", "payload", payload, "timestamp", acquire.Timestamp)

	if err := e.await(ctx, acquire); err != nil {
		return types.Message{}, err
	}

	if _, err := e.replica.Apply(request.FileName(), request.Data()); err != nil {
		return types.Message{}, fmt.Errorf("failed applying %q: %w", payload, err)
	}

	syncing := types.NewMessage(e.name, types.WriteSyncRequest, e.clock.Tick(), payload)
	e.registry.Broadcast(syncing)

	removed := e.retire(payload, syncing, done)
	e.log.Debug("retired round", "payload", payload, "removed", len(removed))

	release := types.NewMessage(e.name, types.WriteReleaseRequest, e.clock.Tick(), payload)
	e.registry.Broadcast(release)

	return types.NewMessage(e.name, types.WriteSuccessAck, e.clock.Tick(), payload), nil
}

// Registers the round and enqueues its acquire request, waiting
// while another round with the same payload is running.
func (e *Engine) begin(ctx context.Context, payload string) (types.Message, chan struct{}, error) {
	for {
		e.mutex.Lock()
		running, busy := e.rounds[payload]
		if !busy {
			done := make(chan struct{})
			e.rounds[payload] = done
			e.retired.Remove(payload)
			acquire := types.NewMessage(e.name, types.WriteAcquireRequest, e.clock.Tick(), payload)
			e.queue.Push(acquire)
			e.mutex.Unlock()
			return acquire, done, nil
		}
		e.mutex.Unlock()

		e.log.Debug("waiting identical round", "payload", payload)
		select {
		case <-ctx.Done():
			return types.Message{}, nil, types.ErrNodeClosed
		case <-running:
		}
	}
}

// Must be called while holding the mutex.
func (e *Engine) lockedEnd(payload string, done chan struct{}) {
	if e.rounds[payload] == done {
		delete(e.rounds, payload)
		close(done)
	}
}

// Ends the round if it was not retired, used when the round is
// interrupted.
func (e *Engine) end(payload string, done chan struct{}) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.lockedEnd(payload, done)
}

// Removes the entries of the round that order before the sync and
// ends the round. Every response with the payload was sent to this
// round, so those go regardless of the order.
func (e *Engine) retire(payload string, syncing types.Message, done chan struct{}) []types.Message {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.retired.Set(payload, syncing.Timestamp)
	removed := e.queue.RemoveIf(func(m types.Message) bool {
		if m.Payload != payload {
			return false
		}
		return m.Type == types.WriteAcquireResponse || m.Less(syncing)
	})
	e.lockedEnd(payload, done)
	return removed
}

// Enqueue a response only while its round is running.
func (e *Engine) acceptResponse(m types.Message) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if _, running := e.rounds[m.Payload]; running {
		e.queue.Push(m)
		return true
	}

	if _, late := e.retired.Get(m.Payload); late {
		e.log.Debug("discarding response for retired round", "peer", m.Sender, "payload", m.Payload)
	} else {
		e.log.Warn("discarding response without round", "peer", m.Sender, "payload", m.Payload)
	}
	return false
}

// Polls the admission until it holds.
func (e *Engine) await(ctx context.Context, acquire types.Message) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for !e.Admitted(acquire) {
		select {
		case <-ctx.Done():
			return types.ErrNodeClosed
		case <-ticker.C:
		}
	}
	return nil
}

// Admitted verify if the acquire request can enter the critical
// session. The request must be at the head of the queue, and the
// queue must hold later messages from at least as many distinct
// senders as there are linked peers.
func (e *Engine) Admitted(acquire types.Message) bool {
	return e.queue.IsHead(acquire) && e.queue.SendersAfter(acquire.Timestamp) >= e.registry.Size()
}

// Read answers a client read request.
func (e *Engine) Read(request types.Message) types.Message {
	fileName := request.FileName()
	content, ok, err := e.replica.Read(fileName)
	if err != nil {
		e.log.Error("failed reading", "file", fileName, "error", err)
		ok = false
	}

	if !ok {
		return types.NewMessage(e.name, types.ReadFailureAck, e.clock.Tick(), fmt.Sprintf("File '%s' does not exist", fileName))
	}
	return types.NewMessage(e.name, types.ReadSuccessAck, e.clock.Tick(), content)
}

// Handle processes a message received from a peer. The clock
// must already have observed the message.
func (e *Engine) Handle(m types.Message) {
	switch m.Type {
	case types.WriteAcquireRequest:
		e.queue.Push(m)
		response := types.NewMessage(e.name, types.WriteAcquireResponse, e.clock.Tick(), m.Payload)
		if err := e.registry.Send(m.Sender, response); err != nil {
			e.log.Warn("failed responding acquire", "peer", m.Sender, "error", err)
		}

	case types.WriteAcquireResponse:
		e.acceptResponse(m)

	case types.WriteReleaseRequest:
		_, ok := e.queue.RemoveFirst(func(q types.Message) bool {
			return q.Type == types.WriteAcquireRequest &&
				q.Sender == m.Sender &&
				q.Timestamp < m.Timestamp &&
				(m.Payload == "" || q.Payload == m.Payload)
		})
		if !ok {
			e.log.Debug("release without acquire", "peer", m.Sender, "payload", m.Payload)
		}

	case types.WriteSyncRequest:
		if _, err := e.replica.Apply(m.FileName(), m.Data()); err != nil {
			e.log.Error("failed applying sync", "peer", m.Sender, "payload", m.Payload, "error", err)
		}

	default:
		e.log.Warn("unexpected message from peer", "peer", m.Sender, "type", m.Type)
	}
}

// Pending returns the queue content in queue order.
func (e *Engine) Pending() []types.Message {
	return e.queue.Values()
}

// Close releases the resources held by the engine.
func (e *Engine) Close() {
	e.retired.Close()
}
