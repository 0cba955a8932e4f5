package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stackflow/internal/project"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

// TestLoadMissingFileGivesDefaults checks that a project without a manifest
// falls back to defaults.
func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := project.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := project.Default()
	if cfg != want {
		t.Errorf("config %+v, want defaults %+v", cfg, want)
	}
}

// TestLoadManifest checks that set keys override defaults and unset keys
// keep them.
func TestLoadManifest(t *testing.T) {
	dir := writeManifest(t, `
[export]
out = "build/cfg"
pretty = true
jobs = 2
`)
	cfg, err := project.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Out != "build/cfg" {
		t.Errorf("out %q, want build/cfg", cfg.Out)
	}
	if !cfg.Pretty {
		t.Error("pretty not set")
	}
	if cfg.Jobs != 2 {
		t.Errorf("jobs %d, want 2", cfg.Jobs)
	}
	// color was not set and keeps its default
	if cfg.Color != "auto" {
		t.Errorf("color %q, want auto", cfg.Color)
	}
}

// TestLoadRejectsBadValues checks value validation.
func TestLoadRejectsBadValues(t *testing.T) {
	dir := writeManifest(t, `
[export]
color = "sometimes"
`)
	if _, err := project.Load(dir); err == nil || !strings.Contains(err.Error(), "color") {
		t.Errorf("expected color error, got %v", err)
	}

	dir = writeManifest(t, `
[export]
jobs = 0
`)
	if _, err := project.Load(dir); err == nil || !strings.Contains(err.Error(), "jobs") {
		t.Errorf("expected jobs error, got %v", err)
	}
}

// TestLoadRejectsUnknownKeys checks that typos do not pass silently.
func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := writeManifest(t, `
[export]
prety = true
`)
	if _, err := project.Load(dir); err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("expected unknown-key error, got %v", err)
	}
}
