// pkg/licensing/catalog.go - vendor license/service plan reference table.

package licensing

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/adminkit/pkg/download"
	"github.com/windowsadmins/adminkit/pkg/logging"
)

// DefaultCatalogURL is the published "Product names and service plan identifiers
// for licensing" table.
const DefaultCatalogURL = "https://download.microsoft.com/download/e/3/e/e3e9faf2-f28b-490a-9ada-c6089a1fc5b0/Product%20names%20and%20service%20plan%20identifiers%20for%20licensing.csv"

// catalogFilePrefix starts the cached copy's name inside the cache directory.
const catalogFilePrefix = "license-service-plans"

// Columns names the CSV headers holding the license and service display names.
type Columns struct {
	License string
	Service string
}

// DefaultColumns matches the published table.
func DefaultColumns() Columns {
	return Columns{
		License: "Product_Display_Name",
		Service: "Service_Plans_Included_Friendly_Names",
	}
}

// RecordSource yields membership records.
type RecordSource interface {
	Records(ctx context.Context) ([]MembershipRecord, error)
}

// ParseCatalog reads membership records from CSV. Headers are matched
// case-insensitively; rows missing either name are skipped.
func ParseCatalog(r io.Reader, cols Columns) ([]MembershipRecord, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("license catalog is empty")
		}
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}
	licenseIdx, serviceIdx := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), cols.License):
			licenseIdx = i
		case strings.EqualFold(strings.TrimSpace(h), cols.Service):
			serviceIdx = i
		}
	}
	if licenseIdx < 0 {
		return nil, fmt.Errorf("catalog is missing column %q", cols.License)
	}
	if serviceIdx < 0 {
		return nil, fmt.Errorf("catalog is missing column %q", cols.Service)
	}

	var records []MembershipRecord
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog line %d: %w", line, err)
		}
		if licenseIdx >= len(fields) || serviceIdx >= len(fields) {
			continue
		}
		lic := strings.TrimSpace(fields[licenseIdx])
		svc := strings.TrimSpace(fields[serviceIdx])
		if lic == "" || svc == "" {
			continue
		}
		records = append(records, MembershipRecord{LicenseName: lic, ServiceName: svc})
	}
	return records, nil
}

// Catalog downloads the reference table into a cache directory and parses it.
type Catalog struct {
	URL       string
	CachePath string
	Columns   Columns
	Download  download.Options
}

func (c *Catalog) url() string {
	if c.URL == "" {
		return DefaultCatalogURL
	}
	return c.URL
}

// Path is the local cache location of the table. The file name carries a
// digest of the URL, so each source gets its own cached copy.
func (c *Catalog) Path() string {
	sum := sha256.Sum256([]byte(c.url()))
	return filepath.Join(c.CachePath, fmt.Sprintf("%s-%x.csv", catalogFilePrefix, sum[:6]))
}

// Records fetches (or reuses) the cached table and parses it.
func (c *Catalog) Records(ctx context.Context) ([]MembershipRecord, error) {
	url := c.url()
	cols := c.Columns
	if cols.License == "" || cols.Service == "" {
		cols = DefaultColumns()
	}

	dest := c.Path()
	if err := download.Fetch(ctx, url, dest, c.Download); err != nil {
		return nil, fmt.Errorf("fetching license catalog: %w", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("opening license catalog: %w", err)
	}
	defer f.Close()

	records, err := ParseCatalog(f, cols)
	if err != nil {
		return nil, err
	}
	logging.Debug("Parsed license catalog", "path", dest, "records", len(records))
	return records, nil
}
