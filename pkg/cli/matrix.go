package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/windowsadmins/adminkit/pkg/download"
	"github.com/windowsadmins/adminkit/pkg/licensing"
	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
	"github.com/windowsadmins/adminkit/pkg/retry"
)

// MatrixTool is a license/service comparison command.
type MatrixTool struct {
	*Common
	Orientation licensing.Orientation

	term    string
	regex   bool
	refresh bool
	source  string
	yes, no string
}

// NewMatrixTool registers the comparison flags for one orientation.
func NewMatrixTool(name string, o licensing.Orientation) *MatrixTool {
	subject := "service plan"
	if o == licensing.ServiceRows {
		subject = "license"
	}
	t := &MatrixTool{
		Common:      NewCommon(name, fmt.Sprintf("--search <%s name> [flags]", subject)),
		Orientation: o,
	}
	t.Flags.StringVarP(&t.term, "search", "s", "", fmt.Sprintf("Text to find in the %s name (case-insensitive).", subject))
	t.Flags.BoolVar(&t.regex, "regex", false, "Treat --search as a regular expression.")
	t.Flags.BoolVar(&t.refresh, "refresh", false, "Download the reference table even if a cached copy is fresh.")
	t.Flags.StringVar(&t.source, "source", "", "Read the reference table from this local CSV instead of downloading it.")
	t.Flags.StringVar(&t.yes, "yes", licensing.YesMarker, "Marker for an included plan in the console table.")
	t.Flags.StringVar(&t.no, "no", licensing.NoMarker, "Marker for an excluded plan in the console table.")
	return t
}

// Run executes the tool and returns the process exit code.
func (t *MatrixTool) Run(args []string, stdout io.Writer) int {
	if code, done := t.Parse(args); done {
		return code
	}
	defer logging.CloseLogger()

	if t.term == "" && t.Flags.NArg() > 0 {
		t.term = t.Flags.Arg(0)
	}
	if t.term == "" {
		t.Flags.Usage()
		return ExitUsage
	}

	ctx, cancel := Context()
	defer cancel()

	records, err := t.records(ctx)
	if err != nil {
		return t.Fail("Failed to load the license reference table", err)
	}

	m, err := licensing.BuildWith(records, licensing.Options{
		Term:        t.term,
		Orientation: t.Orientation,
		Regex:       t.regex,
	})
	if errors.Is(err, licensing.ErrNoMatch) {
		logging.Info("No match", "term", t.term, "orientation", t.Orientation)
		t.Console.Warning("Nothing matches %q.", t.term)
		return ExitOK
	}
	if err != nil {
		return t.Fail("Failed to build comparison", err)
	}
	logging.Info("Built comparison matrix", "term", t.term, "orientation", t.Orientation,
		"rows", len(m.RowLabels()), "columns", len(m.ColumnLabels()))

	if err := output.RenderMatrix(stdout, m.Header(), licensing.Table(m.DisplayRows(t.yes, t.no))); err != nil {
		return t.Fail("Failed to write table", err)
	}

	if err := t.Exported(m.Header(), licensing.Table(m.ExportRows()), matrixDocument(m)); err != nil {
		return t.Fail("Failed to export comparison", err)
	}
	return ExitOK
}

func (t *MatrixTool) records(ctx context.Context) ([]licensing.MembershipRecord, error) {
	if t.source != "" {
		f, err := os.Open(t.source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return licensing.ParseCatalog(f, licensing.DefaultColumns())
	}
	cfg := t.Config
	catalog := &licensing.Catalog{
		URL:       cfg.LicenseCatalogURL,
		CachePath: cfg.CachePath,
		Columns:   licensing.DefaultColumns(),
		Download: download.Options{
			Timeout: cfg.DownloadTimeout(),
			MaxAge:  cfg.CacheMaxAge(),
			Refresh: t.refresh,
			Retry: retry.Config{
				MaxRetries:      cfg.DownloadRetries,
				InitialInterval: time.Second,
				Multiplier:      2.0,
			},
		},
	}
	return catalog.Records(ctx)
}

type matrixCell struct {
	Column   string `yaml:"column"`
	Included bool   `yaml:"included"`
}

type matrixRow struct {
	Label string       `yaml:"label"`
	Cells []matrixCell `yaml:"cells"`
}

type matrixExport struct {
	Orientation string      `yaml:"orientation"`
	Columns     []string    `yaml:"columns"`
	Rows        []matrixRow `yaml:"rows"`
}

func matrixDocument(m *licensing.ComparisonMatrix) matrixExport {
	doc := matrixExport{Orientation: m.Orientation().String(), Columns: m.ColumnLabels()}
	for _, r := range m.RowLabels() {
		mr := matrixRow{Label: r}
		for _, c := range doc.Columns {
			mr.Cells = append(mr.Cells, matrixCell{Column: c, Included: m.Includes(r, c)})
		}
		doc.Rows = append(doc.Rows, mr)
	}
	return doc
}
