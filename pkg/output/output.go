// pkg/output/output.go - console tables and file exports shared by the tools.

package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/adminkit/pkg/utils"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RenderMatrix writes an aligned, bordered table. The first column holds row
// labels; the remaining cells are centered.
func RenderMatrix(w io.Writer, header []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle
			}
		}).
		Headers(header...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderList writes rows under a header as a plain aligned list.
func RenderList(w io.Writer, header []string, rows [][]string) error {
	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(toCells(header)...)
	for _, r := range rows {
		tbl.AddRow(toCells(r)...)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Pair is one labelled value.
type Pair struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// PairHeader is the column order used by PairRows.
var PairHeader = []string{"Item", "Value"}

// PairRows flattens pairs for delimited export.
func PairRows(pairs []Pair) [][]string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p.Key, p.Value})
	}
	return rows
}

// RenderPairs writes "Key: Value" lines aligned on the colon.
func RenderPairs(w io.Writer, pairs []Pair) error {
	tbl := uitable.New()
	tbl.MaxColWidth = 80
	tbl.Wrap = true
	for _, p := range pairs {
		tbl.AddRow(p.Key+":", p.Value)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// EncodeDelimited returns header and rows as UTF-8 delimited text.
// A zero sep means comma.
func EncodeDelimited(header []string, rows [][]string, sep rune) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if sep != 0 {
		cw.Comma = sep
	}
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDelimited exports header and rows to path, replacing it atomically.
func WriteDelimited(path string, header []string, rows [][]string, sep rune) error {
	data, err := EncodeDelimited(header, rows, sep)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteYAML exports v as YAML to path.
func WriteYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatYAML Format = "yaml"
)

// FormatFor picks the export format from a file extension, defaulting to CSV.
func FormatFor(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".txt"):
		return FormatTSV
	default:
		return FormatCSV
	}
}

// Separator is the field separator for delimited formats.
func (f Format) Separator() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}
