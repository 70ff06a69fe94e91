// pkg/utils/hash.go - utility functions for hashing files.

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the hex SHA256 of a file and its size in bytes.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// VerifySHA256 checks a file against an expected hex digest, ignoring case.
func VerifySHA256(path, expected string) bool {
	actual, _, err := FileSHA256(path)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expected)
}
