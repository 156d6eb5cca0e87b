package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML layout of POLICY_FILE. Absent sections keep their defaults.
type PolicyFile struct {
	Users    *DependencyConfig `yaml:"users"`
	Products *DependencyConfig `yaml:"products"`
}

// ApplyPolicyFile merges the dependency sections of a YAML file over cfg.
func ApplyPolicyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	// Decoding into copies of the current values keeps unspecified fields.
	users, products := cfg.Users, cfg.Products
	file := PolicyFile{Users: &users, Products: &products}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	cfg.Users, cfg.Products = users, products
	return nil
}
