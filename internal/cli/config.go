package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/casstore/internal/backend"
)

// Config is the optional YAML config file. Flags given on the command
// line override it.
//
//	db: ./data.db
//	create_if_missing: false
//	read_only: true
type Config struct {
	Database        string `yaml:"db"`
	CreateIfMissing *bool  `yaml:"create_if_missing"`
	ReadOnly        bool   `yaml:"read_only"`
}

// LoadConfig reads the config file at path. Unknown keys are errors so
// typos don't silently fall back to defaults. An empty file is a zero
// Config.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Params returns the backend params the config asks for.
func (c *Config) Params() backend.Params {
	p := backend.DefaultParams()
	if c.CreateIfMissing != nil {
		p.CreateIfMissing = *c.CreateIfMissing
	}
	p.ReadOnly = c.ReadOnly
	return p
}
