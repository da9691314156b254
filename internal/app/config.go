package app

import (
	"errors"
	"fmt"

	"github.com/vk/graft/internal/classpath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocumentPath   string // .hcl file or directory
	RepositoryPath string // optional directory of source artifacts
	ScanScope      string // "classpath" or "dependencies"

	LogFormat       string
	LogLevel        string
	Workers         int
	ProgressSocket  string // optional socket.io URL receiving progress events
	Watch           bool
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DocumentPath == "" {
		return nil, errors.New("DocumentPath is a required configuration field and cannot be empty")
	}
	if cfg.ScanScope == "" {
		cfg.ScanScope = classpath.ScopeClasspath.String()
	}
	if _, err := classpath.ParseScope(cfg.ScanScope); err != nil {
		return nil, err
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return &cfg, nil
}
