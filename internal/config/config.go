package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/transport"
	"github.com/danmuck/edgewire/internal/transport/udp"
)

// NodeConfig configures one datagram node.
type NodeConfig struct {
	ID           string
	Bind         string
	Peers        []string
	DecodePolicy string
	AdminAddr    string
	CorsOrigins  []string
	AdminToken   string
	LogLevel     string
}

type fileConfig struct {
	ID           string   `toml:"id"`
	Bind         string   `toml:"bind"`
	Peers        []string `toml:"peers"`
	DecodePolicy string   `toml:"decode_policy"`
	AdminAddr    string   `toml:"admin_addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	AdminToken   string   `toml:"admin_token"`
	LogLevel     string   `toml:"log_level"`
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ID:           "edgewire",
		Bind:         "127.0.0.1:7400",
		Peers:        []string{},
		DecodePolicy: udp.DecodeFailFast.String(),
		AdminAddr:    "127.0.0.1:7401",
		LogLevel:     "info",
	}
}

// LoadNodeConfig overlays the keys defined in path onto DefaultNodeConfig.
func LoadNodeConfig(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return NodeConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("id") {
		cfg.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("bind") {
		cfg.Bind = strings.TrimSpace(raw.Bind)
	}
	if meta.IsDefined("peers") {
		cfg.Peers = normalizeList(raw.Peers)
	}
	if meta.IsDefined("decode_policy") {
		cfg.DecodePolicy = strings.TrimSpace(raw.DecodePolicy)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := ValidateNodeConfig(cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateNodeConfig(cfg NodeConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("node config missing id")
	}
	bind, err := transport.ParseAddr(cfg.Bind)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if _, ok := bind.(transport.SocketAddr); !ok {
		return fmt.Errorf("bind: %w: %s", transport.ErrUnsupportedAddress, cfg.Bind)
	}
	peers, err := transport.ParseAddrs(cfg.Peers)
	if err != nil {
		return fmt.Errorf("peers: %w", err)
	}
	for i, p := range peers {
		if _, ok := p.(transport.SocketAddr); !ok {
			return fmt.Errorf("peers: addr[%d]: %w: %s", i, transport.ErrUnsupportedAddress, p)
		}
	}
	if _, err := udp.ParseDecodePolicy(cfg.DecodePolicy); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.LogLevel) != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
		}
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
