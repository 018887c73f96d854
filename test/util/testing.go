package util

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs"
	"github.com/jabolina/go-rfs/pkg/rfs/core"
	"github.com/jabolina/go-rfs/pkg/rfs/definition"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

const DefaultTestTimeout = 5 * time.Second

// Node is a running server with its in-memory storage.
type Node struct {
	Info    types.ServerInfo
	Server  *core.Server
	Storage *definition.InMemoryStorage
}

// Cluster holds the servers of a test. Every configured server has
// an entry in Servers, but only the ones started have a Node.
type Cluster struct {
	T       *testing.T
	Config  *rfs.Config
	Servers []types.ServerInfo
	Nodes   []*Node
}

// TestConfig is the default configuration with short intervals,
// debug logs are disabled on CI.
func TestConfig(name string) *rfs.Config {
	_, isCi := os.LookupEnv("CI_ENV")
	level, levelName := hclog.Debug, "DEBUG"
	if isCi {
		level, levelName = hclog.Warn, "WARN"
	}

	config := rfs.Default()
	config.LogLevel = levelName
	config.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: os.Stderr,
	})
	config.Protocol.AdmissionInterval = 10 * time.Millisecond
	config.Protocol.ConnectTrials = 40
	config.Protocol.ConnectBackoff = 25 * time.Millisecond
	config.Protocol.DialTimeout = time.Second
	config.Protocol.ProbeTimeout = time.Second
	return config
}

// Listen binds a stream layer on a random local port.
func Listen(name string, t *testing.T) (*core.TCPStreamLayer, types.ServerInfo) {
	stream, err := core.NewTCPStreamLayer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed listening for %s. %v", name, err)
	}

	addr := stream.Addr().(*net.TCPAddr)
	return stream, types.ServerInfo{Name: name, Address: "127.0.0.1", Port: addr.Port}
}

// CreateCluster starts size servers, all linked to each other.
func CreateCluster(prefix string, size int, t *testing.T) *Cluster {
	return CreatePartialCluster(prefix, size, size, t)
}

// CreatePartialCluster configures size servers but starts only the
// first up of them. The ports of the others are released, so
// nothing answers there.
func CreatePartialCluster(prefix string, size, up int, t *testing.T) *Cluster {
	cluster := &Cluster{
		T:      t,
		Config: TestConfig(prefix),
	}

	streams := make([]*core.TCPStreamLayer, size)
	for i := 0; i < size; i++ {
		stream, info := Listen(fmt.Sprintf("%s-%d", prefix, i), t)
		streams[i] = stream
		cluster.Servers = append(cluster.Servers, info)
	}

	for i := up; i < size; i++ {
		streams[i].Close()
	}

	for i := 0; i < up; i++ {
		info := cluster.Servers[i]
		var peers []types.ServerInfo
		for j, peer := range cluster.Servers {
			if j != i {
				peers = append(peers, peer)
			}
		}

		storage := definition.NewInMemoryStorage()
		conf := &rfs.ServerConfiguration{Directory: info.Name, Self: info, Peers: peers}
		server, err := rfs.NewServerWith(conf, cluster.Config, storage, streams[i])
		if err != nil {
			cluster.Off()
			t.Fatalf("failed starting %s. %v", info.Name, err)
		}
		cluster.Nodes = append(cluster.Nodes, &Node{Info: info, Server: server, Storage: storage})
	}
	return cluster
}

// WaitLinked waits until every started server is linked to every
// other started server.
func (c *Cluster) WaitLinked(timeout time.Duration) bool {
	return Eventually(func() bool {
		for _, node := range c.Nodes {
			if node.Server.Linked() < len(c.Nodes)-1 {
				return false
			}
		}
		return true
	}, timeout)
}

// Node returns the started server with the given name.
func (c *Cluster) Node(name string) *Node {
	for _, node := range c.Nodes {
		if node.Info.Name == name {
			return node
		}
	}
	return nil
}

// Client creates a client configured with every server.
func (c *Cluster) Client(name string) *core.Client {
	config := TestConfig(name)
	config.Protocol = c.Config.Protocol
	config.Protocol.ConnectTrials = 2
	conf := &rfs.ClientConfiguration{Name: name, Servers: c.Servers}
	client, err := rfs.NewClient(context.Background(), conf, config)
	if err != nil {
		c.T.Fatalf("failed creating client %s. %v", name, err)
	}
	return client
}

// Off closes every started server concurrently.
func (c *Cluster) Off() {
	group := &sync.WaitGroup{}
	for _, node := range c.Nodes {
		group.Add(1)
		go func(n *Node) {
			defer group.Done()
			if err := n.Server.Close(); err != nil {
				c.T.Errorf("failed closing %s. %v", n.Info.Name, err)
			}
		}(node)
	}
	group.Wait()
}

// Eventually polls the condition until it holds or the timeout expires.
func Eventually(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

func PrintStackTrace(t *testing.T) {
	buf := make([]byte, 1<<16)
	runtime.Stack(buf, true)
	t.Errorf("%s", buf)
}

func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		cb()
		done <- true
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}
