// pkg/config/config.go - configuration settings for AdminKit.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML configuration.
const ConfigPath = `C:\ProgramData\AdminKit\Config.yaml`

// PolicyRegistryPath holds policy-delivered overrides under HKLM.
const PolicyRegistryPath = `SOFTWARE\AdminKit\Config`

// Configuration holds the configurable options for AdminKit in YAML format
type Configuration struct {
	LicenseCatalogURL      string `yaml:"LicenseCatalogURL"`
	CachePath              string `yaml:"CachePath"`
	CacheMaxAgeHours       int    `yaml:"CacheMaxAgeHours"`
	ExportPath             string `yaml:"ExportPath"`
	LogPath                string `yaml:"LogPath"`
	LogLevel               string `yaml:"LogLevel"`
	LogRetentionRuns       int    `yaml:"LogRetentionRuns"`
	LogRetentionDays       int    `yaml:"LogRetentionDays"`
	DownloadTimeoutSeconds int    `yaml:"DownloadTimeoutSeconds"`
	DownloadRetries        int    `yaml:"DownloadRetries"`

	// Directory application registration
	TenantID             string   `yaml:"TenantID"`
	ClientID             string   `yaml:"ClientID"`
	CredentialPath       string   `yaml:"CredentialPath"`
	CredentialRecipients []string `yaml:"CredentialRecipients"`
	SecretLifetimeDays   int      `yaml:"SecretLifetimeDays"`

	// Console-only settings, never read from YAML
	Verbose bool `yaml:"-"`
	Debug   bool `yaml:"-"`
}

// baseDir is the per-machine data directory.
func baseDir() string {
	if pd := os.Getenv("ProgramData"); pd != "" {
		return filepath.Join(pd, "AdminKit")
	}
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "adminkit")
	}
	return filepath.Join(os.TempDir(), "adminkit")
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	base := baseDir()
	return &Configuration{
		LicenseCatalogURL:      "https://download.microsoft.com/download/e/3/e/e3e9faf2-f28b-490a-9ada-c6089a1fc5b0/Product%20names%20and%20service%20plan%20identifiers%20for%20licensing.csv",
		CachePath:              filepath.Join(base, "cache"),
		CacheMaxAgeHours:       24,
		ExportPath:             filepath.Join(base, "exports"),
		LogPath:                filepath.Join(base, "logs"),
		LogLevel:               "INFO",
		LogRetentionRuns:       20,
		LogRetentionDays:       30,
		DownloadTimeoutSeconds: 60,
		DownloadRetries:        3,
		CredentialPath:         filepath.Join(base, "credentials", "app-credential.yaml"),
		SecretLifetimeDays:     180,
	}
}

// LoadConfig loads the configuration from path, or ConfigPath when path is
// empty. A missing file yields defaults overlaid with any policy registry
// values; a malformed file is an error.
func LoadConfig(path string) (*Configuration, error) {
	if path == "" {
		path = ConfigPath
	}
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading configuration file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing configuration file %s: %w", path, err)
		}
	}

	if err := loadPolicy(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Configuration) applyDefaults() {
	def := GetDefaultConfig()
	if c.LicenseCatalogURL == "" {
		c.LicenseCatalogURL = def.LicenseCatalogURL
	}
	if c.CachePath == "" {
		c.CachePath = def.CachePath
	}
	if c.ExportPath == "" {
		c.ExportPath = def.ExportPath
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.CredentialPath == "" {
		c.CredentialPath = def.CredentialPath
	}
	if c.DownloadTimeoutSeconds <= 0 {
		c.DownloadTimeoutSeconds = def.DownloadTimeoutSeconds
	}
	if c.DownloadRetries <= 0 {
		c.DownloadRetries = def.DownloadRetries
	}
	if c.SecretLifetimeDays <= 0 {
		c.SecretLifetimeDays = def.SecretLifetimeDays
	}
}

// SaveConfig saves the configuration to path as YAML.
func SaveConfig(path string, cfg *Configuration) error {
	if path == "" {
		path = ConfigPath
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// CacheMaxAge is CacheMaxAgeHours as a duration.
func (c *Configuration) CacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeHours) * time.Hour
}

// DownloadTimeout is DownloadTimeoutSeconds as a duration.
func (c *Configuration) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// SecretLifetime is SecretLifetimeDays as a duration.
func (c *Configuration) SecretLifetime() time.Duration {
	return time.Duration(c.SecretLifetimeDays) * 24 * time.Hour
}

// splitList trims entries and drops empty ones.
func splitList(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
