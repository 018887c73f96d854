package core

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// WriteResult reports how a write went through the placement set.
type WriteResult struct {
	// File written.
	File string

	// Data appended.
	Data string

	// Servers responsible for the file.
	Placement []string

	// Servers that acknowledged the write.
	Acknowledged []string

	// Servers that were reachable but failed during the request.
	Failed []string
}

// ReadResult is the outcome of a completed read.
type ReadResult struct {
	// File read.
	File string

	// Server that answered.
	Server string

	// False when the server does not have the file.
	Found bool

	// File content, or the failure reason if not found.
	Content string
}

// Client routes reads and writes to the servers responsible for
// each file. It holds one link for each reachable server and
// executes one request at a time on each link.
type Client struct {
	name string

	// Every configured server in configuration order, this
	// is the list the placement indexes into.
	servers []types.ServerInfo
	names   []string

	placement Placement
	quorum    int

	clock    LogicalClock
	registry *PeerRegistry
	prober   Prober

	// Used only for shuffling the read order.
	randLock *sync.Mutex
	random   *rand.Rand

	log hclog.Logger
}

// NewClient creates the client and links it to every configured
// server it can reach.
func NewClient(ctx context.Context, conf types.ClientConfiguration, dialer Dialer) *Client {
	names := make([]string, 0, len(conf.Servers))
	for _, server := range conf.Servers {
		names = append(names, server.Name)
	}

	log := conf.Logger.Named(conf.Name)
	c := &Client{
		name:    conf.Name,
		servers: conf.Servers,
		names:   names,
		placement: Placement{
			Width:   conf.Protocol.ReplicationWidth,
			Modulus: conf.Protocol.PlacementModulus,
		},
		quorum:   conf.Protocol.WriteQuorum,
		clock:    NewClock(),
		registry: NewPeerRegistry(ClientHandshake(conf.Name), conf.Servers, dialer, conf.Protocol.DialTimeout, log.Named("links")),
		prober: TCPProber{
			Dialer:  dialer,
			Timeout: conf.Protocol.ProbeTimeout,
			Log:     log,
		},
		randLock: &sync.Mutex{},
		random:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
	c.registry.ConnectAll(ctx, conf.Protocol.ConnectTrials, conf.Protocol.ConnectBackoff)
	return c
}

// Name of the client.
func (c *Client) Name() string {
	return c.name
}

// Place returns the servers responsible for the file.
func (c *Client) Place(fileName string) []string {
	return c.placement.Place(fileName, c.names)
}

// Reachable verify if the client is linked to the server and the
// server is accepting connections right now.
func (c *Client) Reachable(name string) bool {
	if _, ok := c.registry.Link(name); !ok {
		return false
	}

	for _, server := range c.servers {
		if server.Name == name {
			return c.prober.Probe(server.Endpoint())
		}
	}
	return false
}

// Write sends the data to every reachable server responsible for
// the file. Nothing is sent if fewer than the write quorum of
// servers are reachable.
func (c *Client) Write(fileName, data string) (WriteResult, error) {
	placed := c.Place(fileName)
	result := WriteResult{
		File:      fileName,
		Data:      data,
		Placement: placed,
	}

	var reachable, unreachable []string
	for _, name := range placed {
		if c.Reachable(name) {
			reachable = append(reachable, name)
		} else {
			unreachable = append(unreachable, name)
		}
	}

	if len(reachable) < c.quorum {
		return result, &types.InsufficientReplicasError{
			File:        fileName,
			Required:    c.quorum,
			Unreachable: unreachable,
		}
	}

	payload := types.WritePayload(fileName, data)
	for _, name := range reachable {
		reply, err := c.request(name, types.ClientWriteRequest, payload)
		if err != nil {
			c.log.Warn("failed writing", "server", name, "file", fileName, "error", err)
			result.Failed = append(result.Failed, name)
			continue
		}

		if reply.Type != types.WriteSuccessAck {
			c.log.Warn("unexpected write reply", "server", name, "type", reply.Type)
			result.Failed = append(result.Failed, name)
			continue
		}
		result.Acknowledged = append(result.Acknowledged, name)
	}
	return result, nil
}

// Read asks the servers responsible for the file, in random order,
// until one of them answers. A server answering that it does not
// have the file is a completed read.
func (c *Client) Read(fileName string) (ReadResult, error) {
	placed := c.shuffle(c.Place(fileName))

	var unreachable []string
	for _, name := range placed {
		if !c.Reachable(name) {
			c.log.Debug("unreachable for read", "server", name, "file", fileName)
			unreachable = append(unreachable, name)
			continue
		}

		reply, err := c.request(name, types.ClientReadRequest, fileName)
		if err != nil {
			c.log.Warn("failed reading", "server", name, "file", fileName, "error", err)
			unreachable = append(unreachable, name)
			continue
		}

		switch reply.Type {
		case types.ReadSuccessAck:
			return ReadResult{File: fileName, Server: name, Found: true, Content: reply.Payload}, nil
		case types.ReadFailureAck:
			return ReadResult{File: fileName, Server: name, Found: false, Content: reply.Payload}, nil
		default:
			return ReadResult{}, fmt.Errorf("%w: %s from %s", types.ErrUnexpectedReply, reply.Type, name)
		}
	}

	return ReadResult{}, &types.UnreachableError{File: fileName, Unreachable: unreachable}
}

// Executes a single request on the link to the server.
func (c *Client) request(name string, t types.MessageType, payload string) (types.Message, error) {
	link, ok := c.registry.Link(name)
	if !ok {
		return types.Message{}, fmt.Errorf("%w: %s", types.ErrLinkNotFound, name)
	}

	request := types.NewMessage(c.name, t, c.clock.Tick(), payload)
	reply, err := link.Exchange(request)
	if err != nil {
		return types.Message{}, err
	}

	c.clock.Observe(reply.Timestamp)
	c.clock.Tick()
	return reply, nil
}

func (c *Client) shuffle(names []string) []string {
	c.randLock.Lock()
	defer c.randLock.Unlock()
	c.random.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return names
}

// Time is the current client logical time.
func (c *Client) Time() uint64 {
	return c.clock.Tock()
}

// Close every link.
func (c *Client) Close() {
	c.registry.Close()
}
