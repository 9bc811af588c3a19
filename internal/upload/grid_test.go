package upload

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func gridOf(rows ...[]string) Grid {
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			cells[i][j] = cellOf(v)
		}
	}
	return NewGrid(cells)
}

func TestNormalizeDropsEmptyRowsAndColumns(t *testing.T) {
	g := gridOf(
		[]string{"Name", "", "Color"},
		[]string{"", "", ""},
		[]string{"Ana", "", "red"},
		[]string{"Ben", "", "blue"},
	)

	n := g.Normalize()
	if n.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", n.NumRows())
	}
	if n.NumCols() != 2 {
		t.Fatalf("cols = %d, want 2", n.NumCols())
	}
	header := n.Header()
	if header[0] != "Name" || header[1] != "Color" {
		t.Fatalf("header = %v", header)
	}
}

func TestNormalizePreservesColumnOrder(t *testing.T) {
	g := gridOf(
		[]string{"A", "", "B", "C"},
		[]string{"1", "", "2", "3"},
	)
	n := g.Normalize()
	header := n.Header()
	want := []string{"A", "B", "C"}
	for i, w := range want {
		if header[i] != w {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], w)
		}
	}
}

func TestNormalizeDropsLeadingTimestampColumn(t *testing.T) {
	g := gridOf(
		[]string{"Timestamp", "Favorite color"},
		[]string{"2024-03-01 09:15:00", "red"},
		[]string{"2024-03-01 09:16:12", "blue"},
	)
	n := g.Normalize()
	if n.NumCols() != 1 {
		t.Fatalf("cols = %d, want 1", n.NumCols())
	}
	if n.Header()[0] != "Favorite color" {
		t.Fatalf("header = %v", n.Header())
	}
}

func TestNormalizeKeepsNonTimestampFirstColumn(t *testing.T) {
	g := gridOf(
		[]string{"Name", "Favorite color"},
		[]string{"Ana", "red"},
	)
	n := g.Normalize()
	if n.NumCols() != 2 {
		t.Fatalf("cols = %d, want 2", n.NumCols())
	}
}

func TestNormalizeIsPure(t *testing.T) {
	g := gridOf(
		[]string{"A", ""},
		[]string{"1", ""},
	)
	_ = g.Normalize()
	if g.NumCols() != 2 {
		t.Fatalf("receiver was modified: cols = %d", g.NumCols())
	}
}

func TestNewGridRectangularizesRaggedRows(t *testing.T) {
	g := NewGrid([][]Cell{
		{cellOf("A"), cellOf("B"), cellOf("C")},
		{cellOf("1")},
	})
	if g.NumCols() != 3 {
		t.Fatalf("cols = %d, want 3", g.NumCols())
	}
	row := g.Row(1)
	if row[1].Valid || row[2].Valid {
		t.Fatalf("padded cells should be invalid")
	}
}

func TestReadGrid(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"Name", "Favorite color"},
		{"Ana", "red"},
		{"Ben", "blue"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	g, err := ReadGrid(buf)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if g.NumRows() != 3 || g.NumCols() != 2 {
		t.Fatalf("grid = %dx%d, want 3x2", g.NumRows(), g.NumCols())
	}
	if g.Row(1)[0].Value != "Ana" || g.Row(2)[1].Value != "blue" {
		t.Fatalf("cells = %v / %v", g.Row(1), g.Row(2))
	}
}

func TestDataColumnSkipsHeader(t *testing.T) {
	g := gridOf(
		[]string{"Q1"},
		[]string{"a"},
		[]string{"b"},
	)
	col := g.DataColumn(0)
	if len(col) != 2 || col[0].Value != "a" || col[1].Value != "b" {
		t.Fatalf("data column = %v", col)
	}
}
