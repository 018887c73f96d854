package rfs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// ServerConfiguration is what describes a server node: where its
// files live, who it is and who the other servers are.
type ServerConfiguration struct {
	// Directory holding the replica files.
	Directory string

	// The server itself.
	Self types.ServerInfo

	// Every other server of the cluster.
	Peers []types.ServerInfo
}

// ClientConfiguration describes a client node.
type ClientConfiguration struct {
	// Client name.
	Name string

	// Every server of the cluster, in placement order.
	Servers []types.ServerInfo
}

// Reads the lines of a configuration source, missing trailing
// lines are returned as empty.
func readLines(r io.Reader, count int) ([]string, error) {
	lines := make([]string, count)
	scanner := bufio.NewScanner(r)
	for i := 0; i < count && scanner.Scan(); i++ {
		lines[i] = strings.TrimSpace(scanner.Text())
	}
	return lines, scanner.Err()
}

// ParseServerConfiguration reads the three lines of a server
// configuration: the directory, the `name:host:port` of the
// server and the peers separated by `|`.
func ParseServerConfiguration(r io.Reader) (*ServerConfiguration, error) {
	lines, err := readLines(r, 3)
	if err != nil {
		return nil, err
	}

	self, err := types.ParseServerInfo(lines[1])
	if err != nil {
		return nil, err
	}

	peers, err := types.ParseServerList(lines[2])
	if err != nil {
		return nil, err
	}

	conf := &ServerConfiguration{
		Directory: lines[0],
		Self:      self,
		Peers:     peers,
	}
	return conf, ValidateServerConfiguration(conf)
}

// ParseClientConfiguration reads the two lines of a client
// configuration: the name and the servers separated by `|`.
func ParseClientConfiguration(r io.Reader) (*ClientConfiguration, error) {
	lines, err := readLines(r, 2)
	if err != nil {
		return nil, err
	}

	servers, err := types.ParseServerList(lines[1])
	if err != nil {
		return nil, err
	}

	conf := &ClientConfiguration{
		Name:    lines[0],
		Servers: servers,
	}
	return conf, ValidateClientConfiguration(conf)
}

// LoadServerConfiguration parses the server configuration file.
func LoadServerConfiguration(path string) (*ServerConfiguration, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseServerConfiguration(file)
}

// LoadClientConfiguration parses the client configuration file.
func LoadClientConfiguration(path string) (*ClientConfiguration, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseClientConfiguration(file)
}

// Prompt asks for the values line by line.
type Prompt struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompt reads answers from in and writes questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{scanner: bufio.NewScanner(in), out: out}
}

// Ask writes the question and returns the trimmed answer.
func (p *Prompt) Ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Confirm asks a yes or no question.
func (p *Prompt) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question + " [y/n]")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

// PromptServerConfiguration asks for a configuration file, and when
// none is given asks every value. Returns nil without error if the
// user does not confirm the start.
func PromptServerConfiguration(p *Prompt) (*ServerConfiguration, error) {
	path, err := p.Ask("Configuration file (leave blank if not exist)")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return LoadServerConfiguration(path)
	}

	directory, err := p.Ask("Directory")
	if err != nil {
		return nil, err
	}

	triple, err := p.Ask("Name:Ip:Port (separated by colon)")
	if err != nil {
		return nil, err
	}

	peers, err := p.Ask("Other servers ((Name:IP:Port) tuples separated by pipe)")
	if err != nil {
		return nil, err
	}

	start, err := p.Confirm("Start server")
	if err != nil || !start {
		return nil, err
	}

	return ParseServerConfiguration(strings.NewReader(strings.Join([]string{directory, triple, peers}, "\n")))
}

// PromptClientConfiguration is the same as PromptServerConfiguration
// for a client.
func PromptClientConfiguration(p *Prompt) (*ClientConfiguration, error) {
	path, err := p.Ask("Configuration file (leave blank if not exist)")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return LoadClientConfiguration(path)
	}

	name, err := p.Ask("Name")
	if err != nil {
		return nil, err
	}

	servers, err := p.Ask("Servers ((Name:IP:Port) tuples separated by pipe)")
	if err != nil {
		return nil, err
	}

	start, err := p.Confirm("Start client")
	if err != nil || !start {
		return nil, err
	}

	return ParseClientConfiguration(strings.NewReader(strings.Join([]string{name, servers}, "\n")))
}

// ValidateServerConfiguration verify for empty and duplicated values.
func ValidateServerConfiguration(conf *ServerConfiguration) error {
	if conf.Directory == "" {
		return fmt.Errorf("%w: empty directory", types.ErrInvalidConfiguration)
	}
	return validateServers(append([]types.ServerInfo{conf.Self}, conf.Peers...))
}

// ValidateClientConfiguration verify for empty and duplicated values.
func ValidateClientConfiguration(conf *ClientConfiguration) error {
	if conf.Name == "" {
		return fmt.Errorf("%w: empty client name", types.ErrInvalidConfiguration)
	}

	// The name is the sender field of every message.
	if strings.Contains(conf.Name, types.Separator) {
		return fmt.Errorf("%w: client name %q can not contain %q", types.ErrInvalidConfiguration, conf.Name, types.Separator)
	}

	if len(conf.Servers) == 0 {
		return fmt.Errorf("%w: server list can not be empty", types.ErrInvalidConfiguration)
	}
	return validateServers(conf.Servers)
}

func validateServers(servers []types.ServerInfo) error {
	names := make(map[string]bool)
	endpoints := make(map[string]bool)
	for _, server := range servers {
		if server.Name == "" || strings.Contains(server.Name, types.Separator) {
			return fmt.Errorf("%w: invalid server name %q", types.ErrInvalidConfiguration, server.Name)
		}

		if names[server.Name] {
			return fmt.Errorf("%w: duplicated server name %s", types.ErrInvalidConfiguration, server.Name)
		}

		if endpoints[server.Endpoint()] {
			return fmt.Errorf("%w: duplicated server address %s", types.ErrInvalidConfiguration, server.Endpoint())
		}

		names[server.Name] = true
		endpoints[server.Endpoint()] = true
	}
	return nil
}
