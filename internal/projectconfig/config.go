// Package projectconfig provides the ProjectConfig struct and loader for
// .kansan.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".kansan.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultServiceURL = "http://127.0.0.1:8000"

	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 8000
)

// maxWalkLevels bounds how far Load walks up looking for FileName.
const maxWalkLevels = 10

// ServiceConfig holds settings for reaching the scheme service.
type ServiceConfig struct {
	URL string `yaml:"url,omitempty"`
}

// ServerConfig holds settings for `kansan serve`.
type ServerConfig struct {
	Host           string   `yaml:"host,omitempty"`
	Port           int      `yaml:"port,omitempty"`
	SchemesFile    string   `yaml:"schemes_file,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .kansan.yaml.
type ProjectConfig struct {
	Service ServiceConfig `yaml:"service,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`

	// dir is the directory the config file was found in, empty for defaults.
	dir string
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Service: ServiceConfig{
			URL: DefaultServiceURL,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
	}
}

// Load finds .kansan.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, dir, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.dir = dir
	return cfg, nil
}

// SchemesFilePath resolves Server.SchemesFile relative to the directory the
// config file was found in. It returns "" when no file is configured.
func (c *ProjectConfig) SchemesFilePath() string {
	p := c.Server.SchemesFile
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// findConfigFile walks up from dir looking for FileName. Returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < maxWalkLevels; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Service.URL != "" {
		dst.Service.URL = src.Service.URL
	}

	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.SchemesFile != "" {
		dst.Server.SchemesFile = src.Server.SchemesFile
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
}
