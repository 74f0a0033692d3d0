// Package config loads the router's TOML/YAML/JSON configuration file
// into the in-memory shape the router registry builds Routes from,
// applying defaults; route semantics are validated by Route
// construction, not here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Defaults mirror the router's external-interface defaults.
const (
	DefaultBindAddress         = "127.0.0.1"
	DefaultConnectTimeoutSec   = 1
	DefaultClientConnTimeoutS  = 9
	DefaultMaxConnections      = 512
	DefaultMaxConnectErrors    = 100
	DefaultNetBufferLength     = 16384
)

// RouteConfig is one `[[route]]` table: the configuration a single
// Route is constructed from.
type RouteConfig struct {
	Name                 string `json:"name" toml:"name" yaml:"name"`
	BindAddress          string `json:"bind_address" toml:"bind_address" yaml:"bind_address"`
	BindPort             uint16 `json:"bind_port" toml:"bind_port" yaml:"bind_port"`
	Socket               string `json:"socket" toml:"socket" yaml:"socket"`
	Destinations         string `json:"destinations" toml:"destinations" yaml:"destinations"`
	Mode                 string `json:"mode" toml:"mode" yaml:"mode"`
	Protocol             string `json:"protocol" toml:"protocol" yaml:"protocol"`
	ConnectTimeoutSec    int    `json:"connect_timeout" toml:"connect_timeout" yaml:"connect_timeout"`
	ClientConnTimeoutSec int    `json:"client_connect_timeout" toml:"client_connect_timeout" yaml:"client_connect_timeout"`
	MaxConnections       uint32 `json:"max_connections" toml:"max_connections" yaml:"max_connections"`
	MaxConnectErrors     uint64 `json:"max_connect_errors" toml:"max_connect_errors" yaml:"max_connect_errors"`
	NetBufferLength      uint32 `json:"net_buffer_length" toml:"net_buffer_length" yaml:"net_buffer_length"`
}

// ApplyDefaults fills in zero-valued fields with the documented
// defaults. It never overwrites an explicitly-set value.
func (c *RouteConfig) ApplyDefaults() {
	if c.BindAddress == "" {
		c.BindAddress = DefaultBindAddress
	}
	if c.Protocol == "" {
		c.Protocol = "classic"
	}
	if c.ConnectTimeoutSec == 0 {
		c.ConnectTimeoutSec = DefaultConnectTimeoutSec
	}
	if c.ClientConnTimeoutSec == 0 {
		c.ClientConnTimeoutSec = DefaultClientConnTimeoutS
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxConnectErrors == 0 {
		c.MaxConnectErrors = DefaultMaxConnectErrors
	}
	if c.NetBufferLength == 0 {
		c.NetBufferLength = DefaultNetBufferLength
	}
}

// RouterConfig is the top-level configuration document: process-wide
// logging options plus every route table.
type RouterConfig struct {
	LogLevel  string `json:"log_level" toml:"log_level" yaml:"log_level"`
	PrettyLog bool   `json:"pretty_log" toml:"pretty_log" yaml:"pretty_log"`

	// EtcdEndpoints, when non-empty, selects an etcd-backed metadata
	// cache client for every Dynamic destination set; an empty list
	// falls back to an in-memory client suitable only for Static
	// routes or tests.
	EtcdEndpoints []string `json:"etcd_endpoints" toml:"etcd_endpoints" yaml:"etcd_endpoints"`

	Routes []RouteConfig `json:"route" toml:"route" yaml:"route"`
}

// Load reads and decodes path, dispatching on its file suffix, then
// applies defaults to every route. It does not validate route
// semantics (mode, destinations, self-loop) -- that is Route
// construction's job, so the same ConfigInvalid errors fire whether
// the caller is loading from a file or building a RouteConfig by hand
// in a test.
func Load(path string) (*RouterConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer file.Close()

	var cfg RouterConfig
	if err := decode(file, path, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	for i := range cfg.Routes {
		cfg.Routes[i].ApplyDefaults()
	}

	return &cfg, nil
}

func decode(file *os.File, path string, target any) error {
	switch {
	case strings.HasSuffix(path, ".toml"):
		_, err := toml.NewDecoder(file).Decode(target)
		return err
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return yaml.NewDecoder(file).Decode(target)
	case strings.HasSuffix(path, ".json"):
		return json.NewDecoder(file).Decode(target)
	default:
		return fmt.Errorf("unknown config format type: %s. Use .toml, .yaml or .json suffix in filename", path)
	}
}
