//go:build !windows

package inventory

import "context"

func installedApps(ctx context.Context) ([]App, error) {
	return nil, ErrUnsupported
}
