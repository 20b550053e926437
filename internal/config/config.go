package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xkazm04/goat/internal/rules"
)

// MaxGridSize is the hard cap on ranked positions per session.
const MaxGridSize = 50

// Config models goat.yml.
type Config struct {
	Session struct {
		GridSize int      `yaml:"grid_size"`
		Tiers    []string `yaml:"tiers"`
	} `yaml:"session"`
	Rules         rules.Rules `yaml:"rules"`
	Notifications struct {
		Success bool `yaml:"success"`
		Errors  bool `yaml:"errors"`
	} `yaml:"notifications"`
	Server struct {
		Addr                string `yaml:"addr"`
		BasePath            string `yaml:"base_path"`
		JWTSecret           string `yaml:"jwt_secret"`
		AllowAnonymousReads bool   `yaml:"allow_anonymous_reads"`
	} `yaml:"server"`
}

// Default returns the shipped configuration.
func Default() *Config {
	c := &Config{}
	c.Session.GridSize = MaxGridSize
	c.Session.Tiers = []string{"S", "A", "B", "C", "D"}
	c.Rules = rules.Default()
	c.Notifications.Success = false
	c.Notifications.Errors = true
	c.Server.Addr = ":8080"
	c.Server.BasePath = "/v0"
	return c
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "goat.yml")
}

// Load reads and validates config from the workspace, falling back to
// defaults when no file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses config over the defaults, so partial files work.
func FromYAML(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse goat.yml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate ensures the config meets the required structure.
func (c *Config) Validate() error {
	if c.Session.GridSize <= 0 {
		return fmt.Errorf("config.session.grid_size must be positive")
	}
	if c.Session.GridSize > MaxGridSize {
		return fmt.Errorf("config.session.grid_size exceeds cap %d", MaxGridSize)
	}
	seen := map[string]bool{}
	for _, t := range c.Session.Tiers {
		if t == "" {
			return fmt.Errorf("config.session.tiers contains an empty tier id")
		}
		if seen[t] {
			return fmt.Errorf("config.session.tiers repeats tier %s", t)
		}
		seen[t] = true
	}
	return nil
}

// ToYAML serializes the config for export.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
