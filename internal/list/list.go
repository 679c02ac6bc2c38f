// Package list implements the single- and multi-select popup (spec
// §4.5): a fuzzy-filterable candidate list and, for multi-select, a
// second "selected" sub-list with Tab toggling focus between them.
package list

import (
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/kubetui/kubetui/internal/widget"
	"github.com/sahilm/fuzzy"
)

// focusPane names which sub-list currently has keyboard focus.
type focusPane int

const (
	focusCandidates focusPane = iota
	focusSelected
)

// List is a single- or multi-select popup. Multi is false for a
// single-select list (Enter closes the popup with exactly one choice
// instead of toggling membership).
type List struct {
	id    string
	area  widget.Rect
	multi bool

	items    []string
	selected map[string]bool

	filter textinput.Model

	focus        focusPane
	candidateIdx int
	selectedIdx  int

	// onChange is invoked with the current selected set on every change
	// to selection, matching the popup's "publish on every change" rule.
	onChange func([]string)
}

// New creates a list popup over items. multi enables the second
// "selected" sub-list and toggle-on-Enter semantics.
func New(id string, items []string, multi bool) *List {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Focus()
	return &List{
		id:       id,
		multi:    multi,
		items:    items,
		selected: make(map[string]bool),
		filter:   ti,
	}
}

func (l *List) ID() string        { return l.id }
func (l *List) CanActivate() bool { return true }

func (l *List) UpdateChunk(r widget.Rect) { l.area = r }

// OnChange registers a callback invoked with the sorted selected set
// whenever selection changes.
func (l *List) OnChange(f func([]string)) { l.onChange = f }

// Selected returns the currently selected items, sorted.
func (l *List) Selected() []string {
	out := make([]string, 0, len(l.selected))
	for k, v := range l.selected {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (l *List) fireChange() {
	if l.onChange != nil {
		l.onChange(l.Selected())
	}
}

// candidates returns the fuzzy-filtered, score-sorted subset of items,
// using Smith-Waterman style scoring via sahilm/fuzzy.
func (l *List) candidates() []string {
	needle := l.filter.Value()
	if needle == "" {
		out := make([]string, len(l.items))
		copy(out, l.items)
		return out
	}
	matches := fuzzy.Find(needle, l.items)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

func (l *List) selectedList() []string { return l.Selected() }

// Vertical reports whether the layout should stack candidates above
// selected (narrow chunk) versus side by side (wide chunk).
func (l *List) Vertical() bool { return l.area.W < 60 }

// OnKey handles Tab (focus toggle), Enter (selection toggle / confirm),
// arrow navigation, and forwards everything else to the filter input.
func (l *List) OnKey(ev widget.KeyEvent) bool {
	switch ev.Name {
	case "tab":
		if l.multi {
			if l.focus == focusCandidates {
				l.focus = focusSelected
			} else {
				l.focus = focusCandidates
			}
		}
		return true
	case "up", "k":
		l.move(-1)
		return true
	case "down", "j":
		l.move(1)
		return true
	case "enter":
		l.toggleFocused()
		return true
	default:
		if l.focus == focusCandidates {
			l.feedFilter(ev)
			return true
		}
		return false
	}
}

func (l *List) feedFilter(ev widget.KeyEvent) {
	if len(ev.Runes) > 0 {
		l.filter.SetValue(l.filter.Value() + string(ev.Runes))
		l.candidateIdx = 0
		return
	}
	if ev.Name == "backspace" {
		v := l.filter.Value()
		if len(v) > 0 {
			l.filter.SetValue(v[:len(v)-1])
			l.candidateIdx = 0
		}
	}
}

func (l *List) move(delta int) {
	if l.focus == focusCandidates {
		n := len(l.candidates())
		l.candidateIdx = clampIndex(l.candidateIdx+delta, n)
	} else {
		n := len(l.selectedList())
		l.selectedIdx = clampIndex(l.selectedIdx+delta, n)
	}
}

func clampIndex(idx, n int) int {
	if n == 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func (l *List) toggleFocused() {
	if l.focus == focusCandidates {
		cands := l.candidates()
		if l.candidateIdx >= len(cands) {
			return
		}
		item := cands[l.candidateIdx]
		if !l.multi {
			for k := range l.selected {
				l.selected[k] = false
			}
			l.selected[item] = true
		} else {
			l.selected[item] = !l.selected[item]
		}
	} else {
		sel := l.selectedList()
		if l.selectedIdx >= len(sel) {
			return
		}
		l.selected[sel[l.selectedIdx]] = false
	}
	l.fireChange()
}

// OnMouse is a no-op placeholder: the popup's click targets belong to
// the layout scaffolding (row positions depend on the chunk geometry
// computed by the enclosing window), out of this package's scope.
func (l *List) OnMouse(ev widget.MouseEvent) bool { return false }

// Render draws the filter input, then candidates (marked with an
// arrow glyph for the multi-select "selected" direction) and, for
// multi-select, the selected sub-list, stacked or side by side per
// Vertical.
func (l *List) Render() []string {
	out := []string{"filter: " + l.filter.Value()}
	cands := l.candidates()
	arrow := "→"
	if l.Vertical() {
		arrow = "↓"
	}
	for i, c := range cands {
		marker := "  "
		if l.focus == focusCandidates && i == l.candidateIdx {
			marker = "> "
		}
		line := marker + c
		if l.selected[c] {
			line += " " + arrow
		}
		out = append(out, line)
	}
	if l.multi {
		out = append(out, "--- selected ---")
		for i, s := range l.selectedList() {
			marker := "  "
			if l.focus == focusSelected && i == l.selectedIdx {
				marker = "> "
			}
			out = append(out, marker+s)
		}
	}
	return out
}

var _ widget.Widget = (*List)(nil)
