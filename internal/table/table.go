// Package table implements the column-aware table widget (spec §4.4):
// a header, raw rows, a substring filter form, column-width computation
// with proportional shrink, and a selection index that tracks row-count
// changes as rows are added or removed by a poller tick.
package table

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/kubetui/kubetui/internal/widget"
	"github.com/mattn/go-runewidth"
)

// Row is one table row: an ordered list of cell strings plus optional
// per-row metadata (namespace/name keys a poller can stash for request
// construction without re-parsing cell text).
type Row struct {
	Metadata map[string]string
	Cells    []string
}

// Item is what a poller emits (spec's KubeTable): a header row plus the
// data rows.
type Item struct {
	Header []string
	Rows   []Row
}

// Table is the widget. It is not itself a poller; callers call SetItem
// whenever a new KubeTable projection arrives.
type Table struct {
	id   string
	area widget.Rect

	item     Item
	filtered []int // indices into item.Rows currently visible

	filterForm   textinput.Model
	filterActive bool // true while routing keys to the filter form
	filterText   string

	selected int
	scroll   int
}

// New creates an empty Table widget.
func New(id string) *Table {
	ti := textinput.New()
	ti.Placeholder = "filter"
	return &Table{id: id, filterForm: ti, selected: -1}
}

func (t *Table) ID() string        { return t.id }
func (t *Table) CanActivate() bool { return true }

func (t *Table) UpdateChunk(r widget.Rect) {
	t.area = r
	t.clampScroll()
}

// SetItem installs a new KubeTable projection, recomputes the filter,
// and adjusts the selection per the row-count-change rules in spec §4.4.
func (t *Table) SetItem(item Item) {
	prevSelectedRow := t.selectedRowIndex()
	t.item = item
	t.applyFilter()
	t.adjustSelection(prevSelectedRow)
}

func (t *Table) selectedRowIndex() int {
	if t.selected < 0 || t.selected >= len(t.filtered) {
		return -1
	}
	return t.filtered[t.selected]
}

func (t *Table) adjustSelection(prevRowIndex int) {
	n := len(t.filtered)
	switch {
	case n == 0:
		t.selected = -1
	case prevRowIndex < 0:
		t.selected = 0
	default:
		// Try to keep the same underlying row selected if it still exists
		// in the filtered set; otherwise fall back to the count-change rules.
		for i, rowIdx := range t.filtered {
			if rowIdx == prevRowIndex {
				t.selected = i
				t.clampScroll()
				return
			}
		}
		if t.selected >= n {
			t.selected = n - 1
		}
		if t.selected < 0 {
			t.selected = 0
		}
	}
	t.clampScroll()
}

func (t *Table) applyFilter() {
	t.filtered = t.filtered[:0]
	needle := strings.ToLower(strings.TrimSpace(t.filterText))
	for i, row := range t.item.Rows {
		if needle == "" || rowMatches(row, needle) {
			t.filtered = append(t.filtered, i)
		}
	}
}

func rowMatches(row Row, needle string) bool {
	for _, c := range row.Cells {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

func (t *Table) clampScroll() {
	visible := t.area.H - 1 // minus header row
	if visible < 1 {
		visible = 1
	}
	if t.selected < t.scroll {
		t.scroll = t.selected
	}
	if t.selected >= t.scroll+visible {
		t.scroll = t.selected - visible + 1
	}
	maxScroll := len(t.filtered) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if t.scroll > maxScroll {
		t.scroll = maxScroll
	}
	if t.scroll < 0 {
		t.scroll = 0
	}
}

// SelectedRow returns the currently selected row and true, or the zero
// Row and false if nothing is selected.
func (t *Table) SelectedRow() (Row, bool) {
	idx := t.selectedRowIndex()
	if idx < 0 {
		return Row{}, false
	}
	return t.item.Rows[idx], true
}

// columnWidths computes each column's display width as
// max(header width, max cell width), then proportionally shrinks the
// widest column(s) until the total fits within innerWidth.
func (t *Table) columnWidths(innerWidth int) []int {
	n := len(t.item.Header)
	if n == 0 {
		return nil
	}
	widths := make([]int, n)
	for i, h := range t.item.Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, rowIdx := range t.filtered {
		row := t.item.Rows[rowIdx]
		for i := 0; i < n && i < len(row.Cells); i++ {
			w := runewidth.StringWidth(row.Cells[i])
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	sep := n - 1 // one space between columns
	if total+sep <= innerWidth || innerWidth <= 0 {
		return widths
	}
	overflow := total + sep - innerWidth
	for overflow > 0 {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 1 {
			break
		}
		widths[widest]--
		overflow--
	}
	return widths
}

// OnKey routes to the filter form while filter-input mode is active
// (every key except Enter/Escape); otherwise it scrolls the selection.
func (t *Table) OnKey(ev widget.KeyEvent) bool {
	if t.filterActive {
		switch ev.Name {
		case "enter":
			t.filterActive = false
			return true
		case "esc":
			t.filterActive = false
			t.filterText = ""
			t.filterForm.SetValue("")
			t.applyFilter()
			t.adjustSelection(t.selectedRowIndex())
			return true
		default:
			t.feedFilterForm(ev)
			t.filterText = t.filterForm.Value()
			t.applyFilter()
			t.adjustSelection(t.selectedRowIndex())
			return true
		}
	}
	switch ev.Name {
	case "/":
		t.filterActive = true
		t.filterForm.Focus()
		return true
	case "up", "k":
		t.moveSelection(-1)
	case "down", "j":
		t.moveSelection(1)
	default:
		return false
	}
	return true
}

func (t *Table) feedFilterForm(ev widget.KeyEvent) {
	if len(ev.Runes) > 0 {
		t.filterForm.SetValue(t.filterForm.Value() + string(ev.Runes))
		return
	}
	if ev.Name == "backspace" {
		v := t.filterForm.Value()
		if len(v) > 0 {
			t.filterForm.SetValue(v[:len(v)-1])
		}
	}
}

func (t *Table) moveSelection(delta int) {
	if len(t.filtered) == 0 {
		return
	}
	t.selected += delta
	if t.selected < 0 {
		t.selected = 0
	}
	if t.selected >= len(t.filtered) {
		t.selected = len(t.filtered) - 1
	}
	t.clampScroll()
}

// OnMouse translates a click to a row selection / scroll.
func (t *Table) OnMouse(ev widget.MouseEvent) bool {
	switch ev.Kind {
	case widget.MouseDown:
		row := ev.Row - 1 + t.scroll // row 0 is the header
		if row >= 0 && row < len(t.filtered) {
			t.selected = row
			t.clampScroll()
		}
		return true
	case widget.MouseScrollUp:
		t.moveSelection(-1)
		return true
	case widget.MouseScrollDown:
		t.moveSelection(1)
		return true
	}
	return false
}

// Render draws the header row then each visible data row, padded/cut to
// column widths.
func (t *Table) Render() []string {
	out := make([]string, 0, t.area.H)
	widths := t.columnWidths(t.area.W)
	out = append(out, renderCells(t.item.Header, widths))
	visible := t.area.H - 1
	for i := 0; i < visible; i++ {
		idx := t.scroll + i
		if idx >= len(t.filtered) {
			out = append(out, "")
			continue
		}
		row := t.item.Rows[t.filtered[idx]]
		line := renderCells(row.Cells, widths)
		if idx == t.selected {
			line = "> " + line
		} else {
			line = "  " + line
		}
		out = append(out, line)
	}
	return out
}

func renderCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = runewidth.FillRight(runewidth.Truncate(cell, widths[i], "…"), widths[i])
	}
	return strings.Join(parts, " ")
}

var _ widget.Widget = (*Table)(nil)
