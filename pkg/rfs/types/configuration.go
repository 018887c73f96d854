package types

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// ProtocolConfiguration holds every tunable of the protocol. The
// same values are used by servers and clients, each side reads only
// what applies to it.
type ProtocolConfiguration struct {
	// Interval between two verifications of the critical
	// session admission.
	AdmissionInterval time.Duration

	// How many rounds the bootstrap tries to link the peers.
	ConnectTrials int

	// Time to wait between two bootstrap rounds.
	ConnectBackoff time.Duration

	// Timeout used when dialing a peer.
	DialTimeout time.Duration

	// Timeout for the reachability probe before each client operation.
	ProbeTimeout time.Duration

	// How many servers are responsible for a single file.
	ReplicationWidth int

	// Modulus used by the placement. Zero means the number
	// of configured servers.
	PlacementModulus int

	// How many reachable replicas a write needs.
	WriteQuorum int

	// Size in bytes of the set holding the already applied writes.
	DedupCacheSize int

	// How long a finished write round is remembered, so late
	// replies for it are discarded.
	RetiredTTL time.Duration
}

// ServerConfiguration holds everything a server node needs.
type ServerConfiguration struct {
	// The node itself.
	Self ServerInfo

	// All the other servers, in configuration order.
	Peers []ServerInfo

	// Where the replica files live.
	Storage Storage

	// Node logger.
	Logger hclog.Logger

	// Protocol tunables.
	Protocol ProtocolConfiguration
}

// ClientConfiguration holds everything a client node needs.
type ClientConfiguration struct {
	// Client name, used as the sender of every request.
	Name string

	// All servers in configuration order. The order is
	// what the placement indexes into.
	Servers []ServerInfo

	// Client logger.
	Logger hclog.Logger

	// Protocol tunables.
	Protocol ProtocolConfiguration
}
