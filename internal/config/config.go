// Package config loads the YAML configuration for the loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the PACS loader.
type Config struct {
	PACS   PACSConfig   `yaml:"pacs"`
	SCP    SCPConfig    `yaml:"scp"`
	Output OutputConfig `yaml:"output"`
}

// PACSConfig holds the remote archive's connection details.
type PACSConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	AETitle string `yaml:"ae_title"`
}

// SCPConfig holds our local Store Receiver's identity.
type SCPConfig struct {
	AETitle string `yaml:"ae_title"`
	Port    int    `yaml:"port"`
}

// OutputConfig holds the filesystem layout root.
type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
}

const (
	defaultSCPAETitle = "AHJO-loader"
	defaultSCPPort    = 9012
	defaultBaseDir    = "/data/research"
)

// Load reads and parses a YAML config file, applying defaults for any
// field the file omits. Environment variables are expanded in the raw
// file content before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{
		SCP: SCPConfig{
			AETitle: defaultSCPAETitle,
			Port:    defaultSCPPort,
		},
		Output: OutputConfig{
			BaseDir: defaultBaseDir,
		},
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.PACS.Host == "" {
		return nil, fmt.Errorf("config %s: pacs.host is required", path)
	}
	if cfg.PACS.Port == 0 {
		return nil, fmt.Errorf("config %s: pacs.port is required", path)
	}
	if cfg.PACS.AETitle == "" {
		return nil, fmt.Errorf("config %s: pacs.ae_title is required", path)
	}

	return cfg, nil
}
