package table

import (
	"testing"

	"github.com/kubetui/kubetui/internal/widget"
)

func sampleItem() Item {
	return Item{
		Header: []string{"NAMESPACE", "NAME", "STATUS"},
		Rows: []Row{
			{Cells: []string{"default", "web-1", "Running"}},
			{Cells: []string{"default", "web-2", "Pending"}},
			{Cells: []string{"kube-system", "coredns-1", "Running"}},
		},
	}
}

func TestTableSelectionAdjustsOnGrowFromEmpty(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 40, H: 5})
	tb.SetItem(sampleItem())
	row, ok := tb.SelectedRow()
	if !ok || row.Cells[1] != "web-1" {
		t.Fatalf("expected first row selected, got %+v ok=%v", row, ok)
	}
}

func TestTableSelectionClearsWhenRowsDropToZero(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 40, H: 5})
	tb.SetItem(sampleItem())
	tb.SetItem(Item{Header: sampleItem().Header})
	if _, ok := tb.SelectedRow(); ok {
		t.Fatalf("expected no selection when rows are empty")
	}
}

func TestTableSelectionClampsWhenShrinkingBelowIndex(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 40, H: 5})
	tb.SetItem(sampleItem())
	tb.moveSelection(2) // select last row (coredns-1)
	tb.SetItem(Item{Header: sampleItem().Header, Rows: sampleItem().Rows[:1]})
	row, ok := tb.SelectedRow()
	if !ok || row.Cells[1] != "web-1" {
		t.Fatalf("expected selection clamped to new last row, got %+v", row)
	}
}

func TestTableFilterNarrowsRows(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 40, H: 5})
	tb.SetItem(sampleItem())
	tb.OnKey(widget.KeyEvent{Name: "/"})
	for _, r := range "coredns" {
		tb.OnKey(widget.KeyEvent{Runes: []rune{r}})
	}
	if len(tb.filtered) != 1 {
		t.Fatalf("expected 1 filtered row, got %d", len(tb.filtered))
	}
	tb.OnKey(widget.KeyEvent{Name: "esc"})
	if len(tb.filtered) != 3 {
		t.Fatalf("expected filter cleared by escape, got %d rows", len(tb.filtered))
	}
}

func TestTableColumnWidthsShrinkProportionally(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 10, H: 5})
	tb.SetItem(sampleItem())
	widths := tb.columnWidths(10)
	total := 0
	for _, w := range widths {
		total += w
	}
	if total+len(widths)-1 > 10 {
		t.Fatalf("expected widths to fit within 10 columns, got total %d widths=%v", total, widths)
	}
}

func TestTableRenderProducesHeaderPlusRows(t *testing.T) {
	tb := New("pods")
	tb.UpdateChunk(widget.Rect{W: 40, H: 4})
	tb.SetItem(sampleItem())
	rows := tb.Render()
	if len(rows) != 4 {
		t.Fatalf("expected 4 rendered rows (1 header + 3 visible), got %d", len(rows))
	}
}
