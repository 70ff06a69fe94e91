//go:build !windows

package sysinfo

import "context"

// platformDetails has nothing to add beyond gopsutil off Windows.
func platformDetails(ctx context.Context) (PlatformDetails, error) {
	return PlatformDetails{}, nil
}
