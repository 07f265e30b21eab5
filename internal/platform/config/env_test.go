package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Package string `env:"MESCHOOLDATA_TEST_PACKAGE" envDefault:"meschooldata"`
	Retries int    `env:"MESCHOOLDATA_TEST_RETRIES" envDefault:"0"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Package != "meschooldata" {
		t.Fatalf("expected default package name, got %q", cfg.Package)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("MESCHOOLDATA_TEST_PACKAGE", "meschooldata_dev")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Package != "meschooldata_dev" {
		t.Fatalf("expected override, got %q", cfg.Package)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("MESCHOOLDATA_TEST_RETRIES", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
