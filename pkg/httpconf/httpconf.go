// Package httpconf loads the connector/router/pipeline tunables from
// JSON, YAML, or TOML, with environment-variable overrides, following the
// teacher's pkg/config.go ConfigManager — generalized from application
// settings down to httpcore's own pool/router/timeout knobs.
package httpconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables a deployment may set. Zero values
// are replaced by Defaults() before use.
type Config struct {
	RouterPrefix string `json:"router_prefix" yaml:"router_prefix" toml:"router_prefix"`

	PoolTotalLimit   int           `json:"pool_total_limit" yaml:"pool_total_limit" toml:"pool_total_limit"`
	PoolPerHostLimit int           `json:"pool_per_host_limit" yaml:"pool_per_host_limit" toml:"pool_per_host_limit"`
	KeepAlive        time.Duration `json:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`
	Lifetime         time.Duration `json:"lifetime" yaml:"lifetime" toml:"lifetime"`

	WaitTimeout    time.Duration `json:"wait_timeout" yaml:"wait_timeout" toml:"wait_timeout"`
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`

	DefaultEncoding string `json:"default_encoding" yaml:"default_encoding" toml:"default_encoding"`
}

// Defaults mirrors spec.md §6's client connector defaults and an empty
// router prefix.
func Defaults() Config {
	return Config{
		RouterPrefix:     "",
		PoolTotalLimit:   100,
		PoolPerHostLimit: 0,
		KeepAlive:        75 * time.Second,
		Lifetime:         15 * time.Second,
		WaitTimeout:      5 * time.Second,
		ConnectTimeout:   1 * time.Second,
		RequestTimeout:   5 * time.Second,
		DefaultEncoding:  "identity",
	}
}

// Manager loads and merges Config values from a file and the environment,
// following the teacher's Load/LoadFromEnv split in pkg/config.go.
type Manager struct {
	cfg Config
}

// NewManager starts from Defaults().
func NewManager() *Manager {
	return &Manager{cfg: Defaults()}
}

// Load reads a JSON, YAML, or TOML file (selected by extension) and
// merges non-zero fields over the current config.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("httpconf: read %s: %w", path, err)
	}

	var parsed Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &parsed)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	default:
		return fmt.Errorf("httpconf: unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("httpconf: parse %s: %w", path, err)
	}

	m.cfg = mergeNonZero(m.cfg, parsed)
	return nil
}

// LoadFromEnv overlays HTTPCORE_-prefixed environment variables, following
// the teacher's ROCKSTAR_-prefixed convention in pkg/config.go.
func (m *Manager) LoadFromEnv() {
	const prefix = "HTTPCORE_"
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], prefix) {
			continue
		}
		key := strings.TrimPrefix(parts[0], prefix)
		value := parts[1]

		switch key {
		case "ROUTER_PREFIX":
			m.cfg.RouterPrefix = value
		case "POOL_TOTAL_LIMIT":
			if n, err := strconv.Atoi(value); err == nil {
				m.cfg.PoolTotalLimit = n
			}
		case "POOL_PER_HOST_LIMIT":
			if n, err := strconv.Atoi(value); err == nil {
				m.cfg.PoolPerHostLimit = n
			}
		case "KEEP_ALIVE":
			if d, err := time.ParseDuration(value); err == nil {
				m.cfg.KeepAlive = d
			}
		case "LIFETIME":
			if d, err := time.ParseDuration(value); err == nil {
				m.cfg.Lifetime = d
			}
		case "WAIT_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				m.cfg.WaitTimeout = d
			}
		case "CONNECT_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				m.cfg.ConnectTimeout = d
			}
		case "REQUEST_TIMEOUT":
			if d, err := time.ParseDuration(value); err == nil {
				m.cfg.RequestTimeout = d
			}
		case "DEFAULT_ENCODING":
			m.cfg.DefaultEncoding = value
		}
	}
}

// Config returns the merged configuration.
func (m *Manager) Config() Config { return m.cfg }

func mergeNonZero(base, override Config) Config {
	if override.RouterPrefix != "" {
		base.RouterPrefix = override.RouterPrefix
	}
	if override.PoolTotalLimit != 0 {
		base.PoolTotalLimit = override.PoolTotalLimit
	}
	if override.PoolPerHostLimit != 0 {
		base.PoolPerHostLimit = override.PoolPerHostLimit
	}
	if override.KeepAlive != 0 {
		base.KeepAlive = override.KeepAlive
	}
	if override.Lifetime != 0 {
		base.Lifetime = override.Lifetime
	}
	if override.WaitTimeout != 0 {
		base.WaitTimeout = override.WaitTimeout
	}
	if override.ConnectTimeout != 0 {
		base.ConnectTimeout = override.ConnectTimeout
	}
	if override.RequestTimeout != 0 {
		base.RequestTimeout = override.RequestTimeout
	}
	if override.DefaultEncoding != "" {
		base.DefaultEncoding = override.DefaultEncoding
	}
	return base
}
