package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ServerInfo identifies a node of the cluster.
type ServerInfo struct {
	// Unique name across the cluster.
	Name string

	// Host the node is listening on.
	Address string

	// Port the node is listening on.
	Port int
}

// ParseServerInfo parses a `name:host:port` triple.
func ParseServerInfo(triple string) (ServerInfo, error) {
	parts := strings.Split(strings.TrimSpace(triple), ":")
	if len(parts) != 3 {
		return ServerInfo{}, fmt.Errorf("%w: expected name:host:port, got %q", ErrInvalidConfiguration, triple)
	}

	name := strings.TrimSpace(parts[0])
	host := strings.TrimSpace(parts[1])
	if name == "" || host == "" {
		return ServerInfo{}, fmt.Errorf("%w: empty name or host in %q", ErrInvalidConfiguration, triple)
	}

	if strings.Contains(name, Separator) {
		return ServerInfo{}, fmt.Errorf("%w: name can not contain %q in %q", ErrInvalidConfiguration, Separator, triple)
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || port < 0 || port > 65535 {
		return ServerInfo{}, fmt.Errorf("%w: invalid port in %q", ErrInvalidConfiguration, triple)
	}

	return ServerInfo{Name: name, Address: host, Port: port}, nil
}

// ParseServerList parses triples separated by `|`. An empty line
// means an empty list.
func ParseServerList(line string) ([]ServerInfo, error) {
	var servers []ServerInfo
	if strings.TrimSpace(line) == "" {
		return servers, nil
	}

	for _, triple := range strings.Split(line, Separator) {
		info, err := ParseServerInfo(triple)
		if err != nil {
			return nil, err
		}
		servers = append(servers, info)
	}
	return servers, nil
}

// Endpoint is the `host:port` used to dial the node.
func (s ServerInfo) Endpoint() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// String renders the triple back.
func (s ServerInfo) String() string {
	return fmt.Sprintf("%s:%s:%d", s.Name, s.Address, s.Port)
}
