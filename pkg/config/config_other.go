//go:build !windows

package config

// loadPolicy is a no-op off Windows; there is no policy registry.
func loadPolicy(cfg *Configuration) error { return nil }
