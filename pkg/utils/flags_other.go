//go:build !windows

package utils

// PatchWindowsArgs is a no-op off Windows; os.Args is already correct.
func PatchWindowsArgs() {}
