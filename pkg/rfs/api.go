package rfs

import (
	"context"

	"github.com/jabolina/go-rfs/pkg/rfs/core"
	"github.com/jabolina/go-rfs/pkg/rfs/definition"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// NewServer starts a server listening on its configured address and
// keeping the files on disk.
func NewServer(conf *ServerConfiguration, config *Config) (*core.Server, error) {
	if err := ValidateServerConfiguration(conf); err != nil {
		return nil, err
	}

	stream, err := core.NewTCPStreamLayer(conf.Self.Endpoint())
	if err != nil {
		return nil, err
	}

	server, err := NewServerWith(conf, config, definition.NewFileStorage(conf.Directory), stream)
	if err != nil {
		stream.Close()
		return nil, err
	}
	return server, nil
}

// NewServerWith starts a server using the given storage and an
// already listening stream layer.
func NewServerWith(conf *ServerConfiguration, config *Config, storage types.Storage, stream core.StreamLayer) (*core.Server, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return core.NewServer(types.ServerConfiguration{
		Self:     conf.Self,
		Peers:    conf.Peers,
		Storage:  storage,
		Logger:   config.Logger,
		Protocol: config.Protocol,
	}, stream)
}

// NewClient creates a client linked to every server it could reach.
// The context bounds only the linking.
func NewClient(ctx context.Context, conf *ClientConfiguration, config *Config) (*core.Client, error) {
	if err := ValidateClientConfiguration(conf); err != nil {
		return nil, err
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return core.NewClient(ctx, types.ClientConfiguration{
		Name:     conf.Name,
		Servers:  conf.Servers,
		Logger:   config.Logger,
		Protocol: config.Protocol,
	}, core.TCPDialer{}), nil
}
