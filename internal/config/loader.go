package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr           string   `json:"addr" yaml:"addr" toml:"addr"`
	LocalRoots     []string `json:"local_roots" yaml:"local_roots" toml:"local_roots"`
	WarehouseRoots []string `json:"warehouse_roots" yaml:"warehouse_roots" toml:"warehouse_roots"`
	ScanWorkers    int      `json:"scan_workers" yaml:"scan_workers" toml:"scan_workers"`
	FullDigest     bool     `json:"full_digest" yaml:"full_digest" toml:"full_digest"`
	GPUClassGB     float64  `json:"gpu_class_gb" yaml:"gpu_class_gb" toml:"gpu_class_gb"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
