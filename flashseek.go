package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/dt10812/FlashSeekBrowse/cmd/flashseek"
	"github.com/dt10812/FlashSeekBrowse/internal/config"
)

//go:embed etc/flashseek.yaml
var embeddedConfig []byte

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load embedded config (defaults), FSB_* env vars override
	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Printf("Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	// An on-disk config file overrides the embedded one entirely
	if path := os.Getenv("FSB_CONFIG"); path != "" {
		if fileCfg, err := config.LoadFile(path); err == nil {
			c = fileCfg
		} else {
			fmt.Printf("Warning: could not read %s: %v\n", path, err)
		}
	}

	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
