package main

import (
	"flag"
	"log"

	"github.com/danmuck/edgewire/internal/config"
)

func main() {
	kind := flag.String("kind", "node", "config kind: node|peer")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "cmd/wirectl/config.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadNodeConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated node %q config at %s", cfg.ID, *input)
		return
	}

	target := *output
	if target == "" {
		switch *kind {
		case "node":
			target = "cmd/wirectl/config.toml"
		case "peer":
			target = "cmd/wirectl/peer.config.toml"
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
