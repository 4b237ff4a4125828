package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bioplant-sim/bioplant-sim/plant"
)

// serviceConfig is the full structure of the service config file. All
// top-level sections must be listed so strict parsing catches typos.
type serviceConfig struct {
	Manager plant.ManagerConfig `yaml:"manager"`
	Listen  string              `yaml:"listen"`
}

// loadServiceConfig reads the YAML service config with strict field
// checking. An empty path returns the defaults.
func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := serviceConfig{
		Manager: plant.DefaultManagerConfig(),
		Listen:  ":8080",
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
