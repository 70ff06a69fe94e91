// pkg/extract/nupkg.go - functions for extracting metadata from NuGet packages.

package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// Nuspec defines the minimal .nuspec struct for .nupkg files
type Nuspec struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		ID          string `xml:"id"`
		Version     string `xml:"version"`
		Title       string `xml:"title"`
		Description string `xml:"description"`
		Authors     string `xml:"authors"`
		Owners      string `xml:"owners"`
		Tags        string `xml:"tags"`
	} `xml:"metadata"`
}

// nupkgMetadata reads the .nuspec inside the package. Name prefers Title over ID.
func nupkgMetadata(nupkgPath string, md *Metadata) error {
	r, err := zip.OpenReader(nupkgPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", nupkgPath, err)
	}
	defer r.Close()

	var nuspecFile *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		md.Files++
		if nuspecFile == nil && strings.EqualFold(filepath.Ext(f.Name), ".nuspec") {
			nuspecFile = f
		}
	}
	if nuspecFile == nil {
		return fmt.Errorf("%s contains no .nuspec", nupkgPath)
	}

	rc, err := nuspecFile.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", nuspecFile.Name, err)
	}
	defer rc.Close()

	var doc Nuspec
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return fmt.Errorf("parsing %s: %w", nuspecFile.Name, err)
	}

	md.Identifier = strings.TrimSpace(doc.Metadata.ID)
	md.Name = strings.TrimSpace(doc.Metadata.Title)
	if md.Name == "" {
		md.Name = md.Identifier
	}
	md.Version = strings.TrimSpace(doc.Metadata.Version)
	md.Developer = strings.TrimSpace(doc.Metadata.Authors)
	if md.Developer == "" {
		md.Developer = strings.TrimSpace(doc.Metadata.Owners)
	}
	md.Description = strings.TrimSpace(doc.Metadata.Description)
	md.Tags = strings.TrimSpace(doc.Metadata.Tags)
	return nil
}
