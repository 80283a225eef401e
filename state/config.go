package state

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var ErrConfiguration = errors.New("configuration error")

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	Id                uint8         `yaml:"id"`                           // numeric identity, the node binds to 127.0.0.<id>
	Network           string        `yaml:"network"`                      // path to the network (neighbour/cost) file
	BasePort          uint16        `yaml:"base_port,omitempty"`          // the node listens on base_port + id
	LogPath           string        `yaml:"log_path,omitempty"`           // if not empty, logs are also written to this file
	LogMaxSizeMB      int           `yaml:"log_max_size_mb,omitempty"`    // if non-zero, the log file is rotated once it reaches this size
	BootstrapMessages *int          `yaml:"bootstrap_messages,omitempty"` // number of hello messages sent once every neighbour is up
	Messages          []string      `yaml:"messages,omitempty"`           // texts to pick bootstrap hellos from
	Seed              uint64        `yaml:"seed,omitempty"`               // seed for bootstrap randomness, 0 picks one at random
	RefreshInterval   time.Duration `yaml:"refresh_interval,omitempty"`   // if non-zero, the full table is re-broadcast on this period
	DebugAddr         string        `yaml:"debug_addr,omitempty"`         // if not empty, serves /debug/metrics, /debug/vars and /debug/routes
}

func (c *LocalCfg) Addr() NodeAddr {
	return LoopbackAddr(c.Id)
}

func (c *LocalCfg) BootstrapQuota() int {
	if c.BootstrapMessages == nil {
		return DefaultBootstrapMessages
	}
	return *c.BootstrapMessages
}

// ExpandLocalCfg fills in defaults for unset values
func ExpandLocalCfg(c *LocalCfg) {
	if c.BasePort == 0 {
		c.BasePort = DefaultBasePort
	}
	if len(c.Messages) == 0 {
		c.Messages = slices.Clone(DefaultMessages)
	}
}

func ReadLocalCfg(path string) (*LocalCfg, error) {
	var cfg LocalCfg
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, path, err)
	}
	return &cfg, nil
}

type Link struct {
	Neighbour NodeAddr
	Cost      uint32
}

// NetworkCfg maps every node in the network to its directly configured links
type NetworkCfg struct {
	Links map[NodeAddr][]Link
}

func (c *NetworkCfg) GetLinks(node NodeAddr) ([]Link, error) {
	links, ok := c.Links[node]
	if !ok {
		return nil, fmt.Errorf("%w: node %s is not defined in the network", ErrConfiguration, node)
	}
	return links, nil
}

func (c *NetworkCfg) Nodes() []NodeAddr {
	nodes := make([]NodeAddr, 0, len(c.Links))
	for n := range c.Links {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, NodeAddr.Compare)
	return nodes
}

func ReadNetworkCfg(path string) (*NetworkCfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer f.Close()
	return ParseNetworkCfg(f)
}

/*
ParseNetworkCfg reads the network description. Each node has a block, blocks are separated by blank lines:

	127.0.0.1
	127.0.0.2 1
	127.0.0.3 4

	127.0.0.2
	127.0.0.1 1

The first line of a block names the node, every other line is a neighbour followed by the link cost.
*/
func ParseNetworkCfg(r io.Reader) (*NetworkCfg, error) {
	cfg := &NetworkCfg{
		Links: make(map[NodeAddr][]Link),
	}
	sc := bufio.NewScanner(r)
	lineNo := 0
	var cur *NodeAddr
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			cur = nil
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if cur == nil {
			if len(fields) != 1 {
				return nil, fmt.Errorf("%w: line %d: expected a node address, got %q", ErrConfiguration, lineNo, line)
			}
			node, err := ParseNodeAddr(fields[0])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrConfiguration, lineNo, err)
			}
			if _, ok := cfg.Links[node]; ok {
				return nil, fmt.Errorf("%w: line %d: node %s is defined more than once", ErrConfiguration, lineNo, node)
			}
			cfg.Links[node] = make([]Link, 0)
			cur = &node
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"<neighbour> <cost>\", got %q", ErrConfiguration, lineNo, line)
		}
		neigh, err := ParseNodeAddr(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrConfiguration, lineNo, err)
		}
		cost, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid cost %q", ErrConfiguration, lineNo, fields[1])
		}
		cfg.Links[*cur] = append(cfg.Links[*cur], Link{
			Neighbour: neigh,
			Cost:      uint32(cost),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}
