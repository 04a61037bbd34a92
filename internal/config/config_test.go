package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/edgewire/internal/testutil/testlog"
	"github.com/danmuck/edgewire/internal/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadNodeConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
id = "node-x"
peers = [" 127.0.0.1:9001 ", "", "10.0.0.2:9002"]
decode_policy = "skip"
`)
	cfg, err := LoadNodeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ID != "node-x" {
		t.Fatalf("unexpected id: %q", cfg.ID)
	}
	if cfg.Bind != DefaultNodeConfig().Bind {
		t.Fatalf("bind should keep default, got %q", cfg.Bind)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0] != "127.0.0.1:9001" {
		t.Fatalf("unexpected peers: %+v", cfg.Peers)
	}
	if cfg.DecodePolicy != "skip" {
		t.Fatalf("unexpected decode policy: %q", cfg.DecodePolicy)
	}
}

func TestLoadNodeConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"multiaddr bind": `bind = "/ip4/127.0.0.1/udp/1"`,
		"bad peer":       `peers = ["nowhere"]`,
		"multiaddr peer": `peers = ["/ip4/127.0.0.1/udp/7420"]`,
		"bad policy":     `decode_policy = "retry"`,
		"bad level":      `log_level = "loud"`,
		"empty id":       `id = " "`,
		"unknown key":    `bnid = "127.0.0.1:1"`,
	}
	for name, body := range cases {
		if _, err := LoadNodeConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidateNodeConfigRejectsUnroutablePeer(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultNodeConfig()
	cfg.Peers = []string{"127.0.0.1:7410", "/ip4/127.0.0.1/udp/7420"}
	err := ValidateNodeConfig(cfg)
	if !errors.Is(err, transport.ErrUnsupportedAddress) {
		t.Fatalf("expected ErrUnsupportedAddress, got %v", err)
	}
	if !strings.Contains(err.Error(), "addr[1]") {
		t.Fatalf("error should name the offending peer: %v", err)
	}

	cfg.Peers = []string{"127.0.0.1:7410", "[::1]:7420"}
	if err := ValidateNodeConfig(cfg); err != nil {
		t.Fatalf("socket peers should validate: %v", err)
	}
}

func TestTemplatesLoad(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"node", "peer"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		if _, err := LoadNodeConfig(path); err != nil {
			t.Fatalf("%s template does not load: %v", kind, err)
		}
		if err := WriteTemplate(path, kind, false); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("expected overwrite refusal, got %v", err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
