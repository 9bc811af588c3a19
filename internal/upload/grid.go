package upload

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is one spreadsheet cell. Valid is false for empty cells, which
// matter for the required-flag inference and for row validation.
type Cell struct {
	Value string
	Valid bool
}

func cellOf(v string) Cell {
	v = strings.TrimSpace(v)
	return Cell{Value: v, Valid: v != ""}
}

// Grid is a rectangular sheet of cells. Row 0 is the header row.
type Grid struct {
	cells [][]Cell
}

func NewGrid(cells [][]Cell) Grid {
	return Grid{cells: rectangularize(cells)}
}

func (g Grid) NumRows() int {
	return len(g.cells)
}

func (g Grid) NumCols() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

func (g Grid) Row(i int) []Cell {
	return g.cells[i]
}

// Header returns row 0 values.
func (g Grid) Header() []string {
	if g.NumRows() == 0 {
		return nil
	}
	header := make([]string, g.NumCols())
	for i, c := range g.cells[0] {
		header[i] = c.Value
	}
	return header
}

// Column returns column j including the header cell.
func (g Grid) Column(j int) []Cell {
	col := make([]Cell, 0, g.NumRows())
	for _, row := range g.cells {
		col = append(col, row[j])
	}
	return col
}

// DataColumn returns column j without the header cell.
func (g Grid) DataColumn(j int) []Cell {
	col := g.Column(j)
	if len(col) == 0 {
		return col
	}
	return col[1:]
}

// ReadGrid parses the active sheet of an uploaded workbook into a grid.
func ReadGrid(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Grid{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Grid{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Grid{}, fmt.Errorf("read rows: %w", err)
	}

	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			cells[i][j] = cellOf(v)
		}
	}
	return NewGrid(cells), nil
}

// Normalize strips fully-empty rows and columns, preserving relative
// order, then drops a leading auto-generated timestamp column if one is
// detected. Pure: the receiver is not modified.
func (g Grid) Normalize() Grid {
	rows := make([][]Cell, 0, g.NumRows())
	for _, row := range g.cells {
		if !rowEmpty(row) {
			rows = append(rows, row)
		}
	}

	keep := make([]int, 0, g.NumCols())
	for j := 0; j < g.NumCols(); j++ {
		empty := true
		for _, row := range rows {
			if row[j].Valid {
				empty = false
				break
			}
		}
		if !empty {
			keep = append(keep, j)
		}
	}

	out := make([][]Cell, len(rows))
	for i, row := range rows {
		out[i] = make([]Cell, len(keep))
		for k, j := range keep {
			out[i][k] = row[j]
		}
	}
	normalized := Grid{cells: out}

	if normalized.hasLeadingTimestampColumn() {
		normalized = normalized.dropColumn(0)
	}
	return normalized
}

// hasLeadingTimestampColumn checks whether the first data cell of the
// first column holds a datetime, which marks an auto-generated
// submission-time column rather than a question.
func (g Grid) hasLeadingTimestampColumn() bool {
	if g.NumRows() < 2 || g.NumCols() == 0 {
		return false
	}
	first := g.cells[1][0]
	return first.Valid && looksLikeTimestamp(first.Value)
}

func (g Grid) dropColumn(j int) Grid {
	out := make([][]Cell, len(g.cells))
	for i, row := range g.cells {
		trimmed := make([]Cell, 0, len(row)-1)
		trimmed = append(trimmed, row[:j]...)
		trimmed = append(trimmed, row[j+1:]...)
		out[i] = trimmed
	}
	return Grid{cells: out}
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"1/2/06 15:04",
	"01-02-06 15:04",
	"1/2/2006 15:04:05",
	"2/1/2006 15:04:05",
	time.RFC3339,
}

func looksLikeTimestamp(v string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func rowEmpty(row []Cell) bool {
	for _, c := range row {
		if c.Valid {
			return false
		}
	}
	return true
}

func rectangularize(cells [][]Cell) [][]Cell {
	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range cells {
		for len(row) < width {
			row = append(row, Cell{})
		}
		cells[i] = row
	}
	return cells
}
