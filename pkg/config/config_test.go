package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_KeepsDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("CHARTBOARD_TEST_NAME", "placements")
	p := writeConfig(t, "name: ${CHARTBOARD_TEST_NAME}\n")

	cfg := sample{Port: 5000}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "placements" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Port != 5000 {
		t.Errorf("port = %d, want default 5000", cfg.Port)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeConfig(t, "port: -1\n")
	cfg := sample{}
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeConfig(t, "port: [\n")
	if err := Load(p, &sample{Port: 1}); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	cfg := sample{Name: "default", Port: 5000}
	read, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if read {
		t.Error("read = true for missing file")
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestLoadOptional_MissingFileStillValidates(t *testing.T) {
	cfg := sample{}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Error("expected validation error for zero defaults")
	}
}

func TestLoadOptional_ReadsExistingFile(t *testing.T) {
	p := writeConfig(t, "port: 8080\n")
	cfg := sample{Port: 5000}
	read, err := LoadOptional(p, &cfg)
	if err != nil || !read {
		t.Fatalf("read = %v, err = %v", read, err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
}
