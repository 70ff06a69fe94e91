//go:build !windows

package extract

import "fmt"

func exeMetadata(exePath string, md *Metadata) error {
	return fmt.Errorf("exe: %w", ErrUnsupported)
}
