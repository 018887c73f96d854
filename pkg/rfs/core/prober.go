package core

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Prober verifies if a server is accepting connections.
type Prober interface {
	Probe(address string) bool
}

// TCPProber opens and closes a connection to the address.
type TCPProber struct {
	Dialer  Dialer
	Timeout time.Duration
	Log     hclog.Logger
}

// Probe implements the Prober interface.
func (t TCPProber) Probe(address string) bool {
	conn, err := t.Dialer.Dial(address, t.Timeout)
	if err != nil {
		t.Log.Debug("probe failed", "address", address, "error", err)
		return false
	}
	conn.Close()
	return true
}
