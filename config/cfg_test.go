package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	if cfg.Build.OutputNameTemplate == "" {
		t.Error("Default output name template is empty")
	}

	if cfg.Extract.StylesheetName != "canvas-course.css" {
		t.Errorf("Default stylesheet name = %q", cfg.Extract.StylesheetName)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
build:
  fix_zip: true
  output_name_template: "{{.Title}}-{{.Date}}.imscc"
  file_name_transliterate: true
  pretty_manifest: true
extract:
  code_page: cp437
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	if !cfg.Build.FixZip {
		t.Error("Expected FixZip to be true")
	}

	if !cfg.Build.FileNameTransliterate {
		t.Error("Expected FileNameTransliterate to be true")
	}

	if !cfg.Build.PrettyManifest {
		t.Error("Expected PrettyManifest to be true")
	}

	// field is excluded from template expansion and must come through verbatim
	if cfg.Build.OutputNameTemplate != "{{.Title}}-{{.Date}}.imscc" {
		t.Errorf("OutputNameTemplate = %q", cfg.Build.OutputNameTemplate)
	}

	if cfg.Extract.CodePage != "cp437" {
		t.Errorf("CodePage = %q, want cp437", cfg.Extract.CodePage)
	}

	// values not present in the file keep their defaults
	if cfg.Extract.StylesheetName != "canvas-course.css" {
		t.Errorf("StylesheetName = %q", cfg.Extract.StylesheetName)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `version: 1
build:
  pretty_manifest: true
  invalid indent
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	content := `version: 1
build:
  no_such_option: true
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfiguration(configPath); err == nil {
		t.Error("Expected error for unknown configuration fields")
	}
}

func TestLoadConfiguration_BadVersion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "version.yaml")

	if err := os.WriteFile(configPath, []byte("version: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfiguration(configPath); err == nil {
		t.Error("Expected validation error for unsupported version")
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "output_name_template") {
		t.Error("Prepared configuration misses build section")
	}

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(out), "version: 1") {
		t.Errorf("Dumped configuration misses version:\n%s", out)
	}
}
