package rfs

import (
	"errors"
	"testing"
	"time"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

func Test_DefaultConfigIsValid(t *testing.T) {
	if err := ValidateConfig(Default()); err != nil {
		t.Fatalf("default configuration should be valid. %v", err)
	}

	client := Default()
	client.Protocol = DefaultClientProtocol()
	if err := ValidateConfig(client); err != nil {
		t.Fatalf("default client configuration should be valid. %v", err)
	}

	if client.Protocol.ConnectTrials != 2 || client.Protocol.ConnectBackoff != 100*time.Millisecond {
		t.Fatalf("client should give up faster, found %v", client.Protocol)
	}
}

func Test_ValidateConfigCreatesLogger(t *testing.T) {
	config := Default()
	config.Logger = nil
	config.LogLevel = "warn"
	if err := ValidateConfig(config); err != nil {
		t.Fatalf("failed validating. %v", err)
	}

	if config.Logger == nil {
		t.Fatalf("logger should be created")
	}
}

func Test_ShouldRejectInvalidTunables(t *testing.T) {
	cases := map[string]func(p *types.ProtocolConfiguration){
		"admission": func(p *types.ProtocolConfiguration) { p.AdmissionInterval = 0 },
		"trials":    func(p *types.ProtocolConfiguration) { p.ConnectTrials = 0 },
		"dial":      func(p *types.ProtocolConfiguration) { p.DialTimeout = time.Hour },
		"probe":     func(p *types.ProtocolConfiguration) { p.ProbeTimeout = 0 },
		"width":     func(p *types.ProtocolConfiguration) { p.ReplicationWidth = 0 },
		"modulus":   func(p *types.ProtocolConfiguration) { p.PlacementModulus = -1 },
		"quorum":    func(p *types.ProtocolConfiguration) { p.WriteQuorum = 4 },
		"ttl":       func(p *types.ProtocolConfiguration) { p.RetiredTTL = 0 },
	}

	for name, change := range cases {
		config := Default()
		change(&config.Protocol)
		if err := ValidateConfig(config); !errors.Is(err, types.ErrInvalidConfiguration) {
			t.Errorf("%s: expected invalid configuration, found %v", name, err)
		}
	}

	config := Default()
	config.LogLevel = "loud"
	if err := ValidateConfig(config); !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Errorf("expected invalid log level, found %v", err)
	}
}
