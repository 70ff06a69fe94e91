//go:build windows

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// loadPolicy overlays values found under HKLM\PolicyRegistryPath. A missing
// key is not an error.
func loadPolicy(cfg *Configuration) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, PolicyRegistryPath, registry.READ)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open policy registry key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "LicenseCatalogURL", &cfg.LicenseCatalogURL)
	loadStringFromRegistry(key, "CachePath", &cfg.CachePath)
	loadStringFromRegistry(key, "ExportPath", &cfg.ExportPath)
	loadStringFromRegistry(key, "LogPath", &cfg.LogPath)
	loadStringFromRegistry(key, "LogLevel", &cfg.LogLevel)
	loadStringFromRegistry(key, "TenantID", &cfg.TenantID)
	loadStringFromRegistry(key, "ClientID", &cfg.ClientID)
	loadStringFromRegistry(key, "CredentialPath", &cfg.CredentialPath)

	loadIntFromRegistry(key, "CacheMaxAgeHours", &cfg.CacheMaxAgeHours)
	loadIntFromRegistry(key, "LogRetentionRuns", &cfg.LogRetentionRuns)
	loadIntFromRegistry(key, "LogRetentionDays", &cfg.LogRetentionDays)
	loadIntFromRegistry(key, "DownloadTimeoutSeconds", &cfg.DownloadTimeoutSeconds)
	loadIntFromRegistry(key, "DownloadRetries", &cfg.DownloadRetries)
	loadIntFromRegistry(key, "SecretLifetimeDays", &cfg.SecretLifetimeDays)

	loadStringArrayFromRegistry(key, "CredentialRecipients", &cfg.CredentialRecipients)
	return nil
}

func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
	}
}

// loadIntFromRegistry accepts REG_SZ digits or a DWORD.
func loadIntFromRegistry(key registry.Key, valueName string, target *int) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(val)); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = int(val)
	}
}

// loadStringArrayFromRegistry accepts REG_MULTI_SZ or a comma-separated REG_SZ.
func loadStringArrayFromRegistry(key registry.Key, valueName string, target *[]string) {
	if vals, _, err := key.GetStringsValue(valueName); err == nil {
		if filtered := splitList(vals); len(filtered) > 0 {
			*target = filtered
			return
		}
	}
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		if filtered := splitList(strings.Split(val, ",")); len(filtered) > 0 {
			*target = filtered
		}
	}
}
