// pkg/licensing/matrix.go - license x service comparison matrix.

package licensing

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNoMatch is returned by Build when no record matches the search term.
// Callers report it and exit cleanly; it is not a failure of the tool.
var ErrNoMatch = errors.New("no license or service matches the search term")

// MembershipRecord states that a license includes a service plan.
type MembershipRecord struct {
	LicenseName string
	ServiceName string
}

// Orientation selects which field forms the matrix rows.
type Orientation int

const (
	// LicenseRows puts licenses on the rows and services on the columns.
	// The search term is matched against the service name.
	LicenseRows Orientation = iota
	// ServiceRows puts services on the rows and licenses on the columns.
	// The search term is matched against the license name.
	ServiceRows
)

// String returns the orientation name used in logs.
func (o Orientation) String() string {
	switch o {
	case LicenseRows:
		return "licenses-by-service"
	case ServiceRows:
		return "services-by-license"
	default:
		return "unknown"
	}
}

// RowTitle is the heading of the leading label column.
func (o Orientation) RowTitle() string {
	if o == ServiceRows {
		return "Service"
	}
	return "License"
}

// searchField returns the field the term is matched against.
func (o Orientation) searchField(r MembershipRecord) string {
	if o == ServiceRows {
		return r.LicenseName
	}
	return r.ServiceName
}

// split returns the (row, column) labels for a record.
func (o Orientation) split(r MembershipRecord) (string, string) {
	if o == ServiceRows {
		return r.ServiceName, r.LicenseName
	}
	return r.LicenseName, r.ServiceName
}

// Options controls how records are matched.
type Options struct {
	Term        string
	Orientation Orientation
	// Regex treats Term as a case-insensitive regular expression instead of literal text.
	Regex bool
}

type cellKey struct {
	row, col string
}

// ComparisonMatrix is a dense boolean grid of row label x column label.
// It is read-only once built.
type ComparisonMatrix struct {
	orientation Orientation
	rows        []string
	cols        []string
	cells       map[cellKey]bool
}

// Build filters records by a literal, case-insensitive substring match of
// term against the orientation's search field and pivots the result.
func Build(records []MembershipRecord, term string, orientation Orientation) (*ComparisonMatrix, error) {
	return BuildWith(records, Options{Term: term, Orientation: orientation})
}

// BuildWith is Build with explicit options.
func BuildWith(records []MembershipRecord, opts Options) (*ComparisonMatrix, error) {
	match, err := matcher(opts)
	if err != nil {
		return nil, err
	}

	present := make(map[cellKey]bool)
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for _, rec := range records {
		if !match(opts.Orientation.searchField(rec)) {
			continue
		}
		row, col := opts.Orientation.split(rec)
		rowSet[row] = struct{}{}
		colSet[col] = struct{}{}
		present[cellKey{row, col}] = true
	}
	if len(present) == 0 {
		return nil, ErrNoMatch
	}

	m := &ComparisonMatrix{
		orientation: opts.Orientation,
		rows:        sortedKeys(rowSet),
		cols:        sortedKeys(colSet),
		cells:       make(map[cellKey]bool, len(rowSet)*len(colSet)),
	}
	for _, r := range m.rows {
		for _, c := range m.cols {
			m.cells[cellKey{r, c}] = present[cellKey{r, c}]
		}
	}
	return m, nil
}

func matcher(opts Options) (func(string) bool, error) {
	if opts.Regex {
		re, err := regexp.Compile("(?i)" + opts.Term)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern %q: %w", opts.Term, err)
		}
		return re.MatchString, nil
	}
	needle := strings.ToLower(opts.Term)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Orientation reports which field forms the rows.
func (m *ComparisonMatrix) Orientation() Orientation { return m.orientation }

// RowLabels returns a copy of the sorted row labels.
func (m *ComparisonMatrix) RowLabels() []string { return append([]string(nil), m.rows...) }

// ColumnLabels returns a copy of the sorted column labels.
func (m *ComparisonMatrix) ColumnLabels() []string { return append([]string(nil), m.cols...) }

// Includes reports the cell value. Unknown labels report false.
func (m *ComparisonMatrix) Includes(row, col string) bool {
	return m.cells[cellKey{row, col}]
}

// Header returns the label column title followed by the column labels.
func (m *ComparisonMatrix) Header() []string {
	header := make([]string, 0, len(m.cols)+1)
	header = append(header, m.orientation.RowTitle())
	return append(header, m.cols...)
}
