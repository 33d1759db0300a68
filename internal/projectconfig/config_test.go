package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	assertEqual(t, "Service.URL", "http://127.0.0.1:8000", cfg.Service.URL)
	assertEqual(t, "Server.Host", "127.0.0.1", cfg.Server.Host)
	assertEqualInt(t, "Server.Port", 8000, cfg.Server.Port)
	assertEqual(t, "Server.SchemesFile", "", cfg.Server.SchemesFile)
	if cfg.Server.AllowedOrigins != nil {
		t.Error("Server.AllowedOrigins should be nil by default")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
service:
  url: https://convert.example.com
server:
  host: 0.0.0.0
  port: 9090
  schemes_file: schemes.yaml
  allowed_origins:
    - https://app.example.com
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Service.URL", "https://convert.example.com", cfg.Service.URL)
	assertEqual(t, "Server.Host", "0.0.0.0", cfg.Server.Host)
	assertEqualInt(t, "Server.Port", 9090, cfg.Server.Port)
	assertEqual(t, "Server.SchemesFile", "schemes.yaml", cfg.Server.SchemesFile)
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("Server.AllowedOrigins: got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_PartialConfig_KeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "server:\n  port: 9000\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqualInt(t, "Server.Port", 9000, cfg.Server.Port)
	assertEqual(t, "Server.Host", DefaultServerHost, cfg.Server.Host)
	assertEqual(t, "Service.URL", DefaultServiceURL, cfg.Service.URL)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Service.URL", DefaultServiceURL, cfg.Service.URL)
	assertEqual(t, "SchemesFilePath", "", cfg.SchemesFilePath())
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "service: [unclosed\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "service:\n  url: http://parent:1\nserver:\n  schemes_file: defs/schemes.yaml\n")

	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Service.URL", "http://parent:1", cfg.Service.URL)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "SchemesFilePath", filepath.Join(absRoot, "defs", "schemes.yaml"), cfg.SchemesFilePath())
}

func TestSchemesFilePath_Absolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "schemes.yaml")
	cfg := New()
	cfg.Server.SchemesFile = abs
	cfg.dir = "/somewhere/else"

	assertEqual(t, "SchemesFilePath", abs, cfg.SchemesFilePath())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: want %q, got %q", field, want, got)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: want %d, got %d", field, want, got)
	}
}
