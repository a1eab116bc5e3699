// Package config decodes the optional "-config FILE" YAML document
// into the settings the command-line flags can also supply.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the settings the config file can supply; the CLI's -d
// and -m flags override Dir and LogLevel when set.
type Config struct {
	Dir          string `yaml:"dir"`
	PoolPages    int    `yaml:"pool_pages"`
	MaxOpenFiles int    `yaml:"max_open_files"`
	LogLevel     string `yaml:"log_level"`
}

// Load decodes a YAML config file at path. A missing path is not an
// error; it yields a zero-value Config so flag defaults take over.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
