package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Session.GridSize != MaxGridSize {
		t.Fatalf("grid size = %d, want %d", c.Session.GridSize, MaxGridSize)
	}
	if len(c.Session.Tiers) != 5 || c.Session.Tiers[0] != "S" {
		t.Fatalf("unexpected default tiers: %v", c.Session.Tiers)
	}
	if !c.Rules.AllowSwap || !c.Rules.RequireAvailableItem || c.Rules.AllowSamePosition {
		t.Fatalf("unexpected default rules: %+v", c.Rules)
	}
	if c.Notifications.Success || !c.Notifications.Errors {
		t.Fatalf("unexpected notification defaults: %+v", c.Notifications)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromYAMLPartialOverridesDefaults(t *testing.T) {
	data := []byte("session:\n  grid_size: 10\nrules:\n  allow_swap: false\n")
	c, err := FromYAML(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Session.GridSize != 10 {
		t.Fatalf("grid size = %d, want 10", c.Session.GridSize)
	}
	if c.Rules.AllowSwap {
		t.Fatal("allow_swap should be overridden to false")
	}
	// Untouched keys keep their defaults.
	if len(c.Session.Tiers) != 5 {
		t.Fatalf("tiers should stay default, got %v", c.Session.Tiers)
	}
	if c.Server.BasePath != "/v0" {
		t.Fatalf("base path = %q, want /v0", c.Server.BasePath)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Config)
	}{
		{"zero grid size", func(c *Config) { c.Session.GridSize = 0 }},
		{"grid size over cap", func(c *Config) { c.Session.GridSize = MaxGridSize + 1 }},
		{"empty tier id", func(c *Config) { c.Session.Tiers = []string{"S", ""} }},
		{"duplicate tier", func(c *Config) { c.Session.Tiers = []string{"S", "S"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.edit(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Session.GridSize != MaxGridSize {
		t.Fatalf("grid size = %d, want default", c.Session.GridSize)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	c := Default()
	c.Session.GridSize = 20
	c.Rules.AllowSamePosition = true
	data, err := c.ToYAML()
	if err != nil {
		t.Fatalf("to yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "goat.yml"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Session.GridSize != 20 || !got.Rules.AllowSamePosition {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
