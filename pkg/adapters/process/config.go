package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HandlerConfig binds a node type to an external command.
type HandlerConfig struct {
	Type        string            `yaml:"type" json:"type"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Timeout is a Go duration string such as "30s". Empty means no limit.
	Timeout     string `yaml:"timeout" json:"timeout"`
	Description string `yaml:"description" json:"description"`
}

// TimeoutDuration parses Timeout.
func (c HandlerConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("handler %s: invalid timeout %q: %w", c.Type, c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("handler %s: negative timeout %q", c.Type, c.Timeout)
	}
	return d, nil
}

// ConfigFile is the structure of handlers.yaml.
type ConfigFile struct {
	Handlers []HandlerConfig `yaml:"handlers" json:"handlers"`
}

// LoadHandlers reads a YAML or JSON handler configuration keyed by node
// type. A missing file yields an empty set.
func LoadHandlers(path string) (map[string]HandlerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]HandlerConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read handler config: %w", err)
	}

	var cfg ConfigFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	handlers := make(map[string]HandlerConfig, len(cfg.Handlers))
	for i, h := range cfg.Handlers {
		if h.Type == "" || h.Command == "" {
			return nil, fmt.Errorf("handler %d: type and command are required", i)
		}
		if _, dup := handlers[h.Type]; dup {
			return nil, fmt.Errorf("handler %d: duplicate node type %q", i, h.Type)
		}
		if _, err := h.TimeoutDuration(); err != nil {
			return nil, err
		}
		handlers[h.Type] = h
	}
	return handlers, nil
}
