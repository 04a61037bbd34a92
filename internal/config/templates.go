package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "node":
		return nodeTemplate, nil
	case "peer":
		return peerTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const nodeTemplate = `id = "node-a"
bind = "127.0.0.1:7400"
peers = ["127.0.0.1:7410"]
decode_policy = "fail_fast"
admin_addr = "127.0.0.1:7401"
cors_origins = ["http://localhost:3000"]
admin_token = ""
log_level = "info"
`

const peerTemplate = `id = "node-b"
bind = "127.0.0.1:7410"
peers = ["127.0.0.1:7400"]
decode_policy = "skip"
admin_addr = "127.0.0.1:7411"
log_level = "debug"
`
