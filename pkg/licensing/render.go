package licensing

// Display markers for interactive output.
const (
	YesMarker = "✔"
	NoMarker  = "✘"
)

// Cell is one (column label, value) pair of a rendered row.
type Cell struct {
	Column string
	Value  string
}

// Row is one rendered matrix row. Cells follow the matrix column order.
type Row struct {
	Label string
	Cells []Cell
}

// Values returns the label followed by the cell values, in header order.
func (r Row) Values() []string {
	out := make([]string, 0, len(r.Cells)+1)
	out = append(out, r.Label)
	for _, c := range r.Cells {
		out = append(out, c.Value)
	}
	return out
}

// DisplayRows renders the matrix with the given yes/no markers.
// Empty markers fall back to YesMarker and NoMarker.
func (m *ComparisonMatrix) DisplayRows(yes, no string) []Row {
	if yes == "" {
		yes = YesMarker
	}
	if no == "" {
		no = NoMarker
	}
	return m.render(yes, no)
}

// ExportRows renders the matrix as 1/0 values for delimited export.
func (m *ComparisonMatrix) ExportRows() []Row {
	return m.render("1", "0")
}

func (m *ComparisonMatrix) render(yes, no string) []Row {
	rows := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		row := Row{Label: r, Cells: make([]Cell, 0, len(m.cols))}
		for _, c := range m.cols {
			v := no
			if m.cells[cellKey{r, c}] {
				v = yes
			}
			row.Cells = append(row.Cells, Cell{Column: c, Value: v})
		}
		rows = append(rows, row)
	}
	return rows
}

// Table flattens rows into string slices for table writers.
func Table(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}
