package rfs

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// Bounds for the tunables, anything outside is a mistake
// in the configuration.
const (
	maxDialTimeout  = 30 * time.Second
	maxProbeTimeout = time.Minute
)

// Config holds what is shared by servers and clients of a process.
type Config struct {
	// User provided logger to be used.
	Logger hclog.Logger

	// LogLevel represents a log level.
	LogLevel string

	// Protocol tunables.
	Protocol types.ProtocolConfiguration
}

// DefaultProtocol returns the protocol tunables with the values
// servers and clients use unless told otherwise.
func DefaultProtocol() types.ProtocolConfiguration {
	return types.ProtocolConfiguration{
		AdmissionInterval: 100 * time.Millisecond,
		ConnectTrials:     5,
		ConnectBackoff:    500 * time.Millisecond,
		DialTimeout:       5 * time.Second,
		ProbeTimeout:      10 * time.Second,
		ReplicationWidth:  3,
		PlacementModulus:  0,
		WriteQuorum:       2,
		DedupCacheSize:    8 * 1024 * 1024,
		RetiredTTL:        10 * time.Minute,
	}
}

// DefaultClientProtocol is the same as DefaultProtocol, but a client
// gives up linking to servers faster.
func DefaultClientProtocol() types.ProtocolConfiguration {
	protocol := DefaultProtocol()
	protocol.ConnectTrials = 2
	protocol.ConnectBackoff = 100 * time.Millisecond
	return protocol
}

// Default creates a configuration ready to be used.
func Default() *Config {
	return &Config{
		Logger:   hclog.New(&hclog.LoggerOptions{Level: hclog.Info, Output: os.Stdout}),
		LogLevel: "INFO",
		Protocol: DefaultProtocol(),
	}
}

// ValidateConfig verify if the given configuration is valid to be
// used, a missing logger is replaced by one at the configured level.
func ValidateConfig(config *Config) error {
	level := hclog.LevelFromString(config.LogLevel)
	if level == hclog.NoLevel {
		return fmt.Errorf("%w: unknown log level %q", types.ErrInvalidConfiguration, config.LogLevel)
	}

	if config.Logger == nil {
		config.Logger = hclog.New(&hclog.LoggerOptions{Level: level, Output: os.Stdout})
	}

	return ValidateProtocol(config.Protocol)
}

// ValidateProtocol verify the tunables for values that would
// never work.
func ValidateProtocol(p types.ProtocolConfiguration) error {
	if p.AdmissionInterval <= 0 {
		return fmt.Errorf("%w: admission interval must be positive", types.ErrInvalidConfiguration)
	}

	if p.ConnectTrials < 1 {
		return fmt.Errorf("%w: at least one connect trial is needed", types.ErrInvalidConfiguration)
	}

	if p.DialTimeout <= 0 || p.DialTimeout > maxDialTimeout {
		return fmt.Errorf("%w: dial timeout %v must be in (0, %v]", types.ErrInvalidConfiguration, p.DialTimeout, maxDialTimeout)
	}

	if p.ProbeTimeout <= 0 || p.ProbeTimeout > maxProbeTimeout {
		return fmt.Errorf("%w: probe timeout %v must be in (0, %v]", types.ErrInvalidConfiguration, p.ProbeTimeout, maxProbeTimeout)
	}

	if p.ReplicationWidth < 1 {
		return fmt.Errorf("%w: replication width must be at least 1", types.ErrInvalidConfiguration)
	}

	if p.PlacementModulus < 0 {
		return fmt.Errorf("%w: placement modulus can not be negative", types.ErrInvalidConfiguration)
	}

	if p.WriteQuorum < 1 || p.WriteQuorum > p.ReplicationWidth {
		return fmt.Errorf("%w: write quorum %d must be in [1, %d]", types.ErrInvalidConfiguration, p.WriteQuorum, p.ReplicationWidth)
	}

	if p.RetiredTTL <= 0 {
		return fmt.Errorf("%w: retired ttl must be positive", types.ErrInvalidConfiguration)
	}
	return nil
}
