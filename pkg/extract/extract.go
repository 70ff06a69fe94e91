// pkg/extract/extract.go - installer file metadata.

package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/windowsadmins/adminkit/pkg/output"
	"github.com/windowsadmins/adminkit/pkg/utils"
)

// ErrUnknownInstaller is returned for file types Inspect does not understand.
var ErrUnknownInstaller = errors.New("unrecognized installer type")

// ErrUnsupported is returned when the platform cannot read this installer type.
var ErrUnsupported = errors.New("installer type cannot be read on this platform")

// Metadata describes an installer file.
type Metadata struct {
	Path        string `yaml:"path"`
	Type        string `yaml:"type"`
	Name        string `yaml:"name,omitempty"`
	Identifier  string `yaml:"identifier,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Developer   string `yaml:"developer,omitempty"`
	Description string `yaml:"description,omitempty"`
	ProductCode string `yaml:"product_code,omitempty"`
	UpgradeCode string `yaml:"upgrade_code,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
	Files       int    `yaml:"files,omitempty"`
	Size        int64  `yaml:"size"`
	SHA256      string `yaml:"sha256"`
}

// Inspect reads metadata from an .msi, .exe or .nupkg file.
func Inspect(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	md := &Metadata{Path: path, Type: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
	switch md.Type {
	case "msi":
		err = msiMetadata(path, md)
	case "exe":
		err = exeMetadata(path, md)
	case "nupkg":
		err = nupkgMetadata(path, md)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownInstaller)
	}
	if err != nil {
		return nil, err
	}
	if md.Name == "" {
		md.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	md.SHA256, md.Size, err = utils.FileSHA256(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return md, nil
}

// Pairs flattens metadata for display, skipping empty fields.
func (m *Metadata) Pairs() []output.Pair {
	all := []output.Pair{
		{Key: "File", Value: m.Path},
		{Key: "Type", Value: m.Type},
		{Key: "Name", Value: m.Name},
		{Key: "Identifier", Value: m.Identifier},
		{Key: "Version", Value: m.Version},
		{Key: "Developer", Value: m.Developer},
		{Key: "Description", Value: m.Description},
		{Key: "Product code", Value: m.ProductCode},
		{Key: "Upgrade code", Value: m.UpgradeCode},
		{Key: "Tags", Value: m.Tags},
		{Key: "Size", Value: fmt.Sprintf("%s (%d bytes)", humanize.Bytes(uint64(m.Size)), m.Size)},
		{Key: "SHA256", Value: m.SHA256},
	}
	pairs := all[:0]
	for _, p := range all {
		if p.Value != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
