// Package config resolves server settings from command-line flags, an
// optional JSON file and environment variables, in that order of
// precedence (environment wins).
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the resolved server settings.
type Options struct {
	// Port is the listen address (ip:port).
	Port string

	// DatabaseDSN is the document-store connection string.
	DatabaseDSN string

	// ImportDir is the directory the server reads bulk word files from.
	ImportDir string

	// Config is the path to an optional JSON settings file.
	Config string
}

var options = &Options{}

func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.ImportDir, "i", "import", "directory with bulk word files")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse resolves the settings once at startup. A missing settings file is
// ignored; an unreadable or malformed one is fatal.
func Parse() *Options {
	flag.Parse()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	if importDir := os.Getenv("IMPORT_DIR"); importDir != "" {
		options.ImportDir = importDir
	}

	return options
}
