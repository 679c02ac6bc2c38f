package text

import (
	"strings"

	"github.com/kubetui/kubetui/internal/style"
)

// TextItem owns a sequence of Lines and the WrappedLine projection over
// them. Wrapped lines are rebuilt atomically whenever the wrap width
// changes or a Line is appended — callers never observe a partially
// rewrapped state.
type TextItem struct {
	lines     []Line
	wrapped   []WrappedLine
	width     *int // nil = wrap disabled
	highlight Highlights
}

// NewTextItem returns an empty TextItem with wrapping disabled.
func NewTextItem() *TextItem {
	return &TextItem{highlight: NoHighlight()}
}

// Lines returns the owned, unwrapped Lines (read-only use by callers).
func (t *TextItem) Lines() []Line { return t.lines }

// WrappedLines returns the current wrapped projection.
func (t *TextItem) WrappedLines() []WrappedLine { return t.wrapped }

// WrapWidth returns the current wrap width, or nil if wrapping is off.
func (t *TextItem) WrapWidth() *int { return t.width }

// SetWrapWidth changes the wrap width (nil disables wrapping) and
// atomically rebuilds the wrapped projection.
func (t *TextItem) SetWrapWidth(width *int) {
	t.width = width
	t.rewrapAll()
}

// Append adds new source lines to the end of the item and extends the
// wrapped projection for them (no need to rewrap lines already wrapped).
func (t *TextItem) Append(raw ...string) {
	base := len(t.lines)
	for i, r := range raw {
		t.lines = append(t.lines, NewLine(r, base+i))
	}
	for i := base; i < len(t.lines); i++ {
		t.wrapLineAppend(i)
	}
}

// SetLines replaces the entire content and rebuilds the wrap from
// scratch.
func (t *TextItem) SetLines(raw []string) {
	t.lines = make([]Line, len(raw))
	for i, r := range raw {
		t.lines[i] = NewLine(r, i)
	}
	t.rewrapAll()
}

func (t *TextItem) rewrapAll() {
	t.wrapped = t.wrapped[:0]
	lineNumber := 0
	for i := range t.lines {
		t.lines[i].Number = lineNumber
		runs := style.Wrap(t.lines[i].Graphemes, t.width)
		start := 0
		for _, r := range runs {
			t.wrapped = append(t.wrapped, WrappedLine{LineIndex: i, Start: start, End: start + len(r)})
			start += len(r)
			lineNumber++
		}
	}
}

// wrapLineAppend wraps exactly one newly appended line and appends its
// WrappedLines, fixing up that Line's Number field. It assumes every
// prior line is already wrapped (true for Append's use, which only ever
// grows the tail).
func (t *TextItem) wrapLineAppend(idx int) {
	lineNumber := len(t.wrapped)
	t.lines[idx].Number = lineNumber
	runs := style.Wrap(t.lines[idx].Graphemes, t.width)
	start := 0
	for _, r := range runs {
		t.wrapped = append(t.wrapped, WrappedLine{LineIndex: idx, Start: start, End: start + len(r)})
		start += len(r)
	}
}

// LineCount returns the number of unwrapped source lines.
func (t *TextItem) LineCount() int { return len(t.lines) }

// WrappedLineCount returns the number of rows in the wrapped projection.
func (t *TextItem) WrappedLineCount() int { return len(t.wrapped) }

// MaxLineWidth returns the column width of the widest unwrapped source
// line, used to clamp horizontal scroll when wrapping is disabled.
func (t *TextItem) MaxLineWidth() int {
	max := 0
	for _, l := range t.lines {
		w := 0
		for _, g := range l.Graphemes {
			w += g.Width
		}
		if w > max {
			max = w
		}
	}
	return max
}

// Highlight clears any prior highlight, then records every range in the
// current Lines whose grapheme symbols match word's graphemes
// (symbol-level matching; style is ignored). The original style of
// every covered grapheme is saved so ClearHighlight can restore it
// exactly; covered graphemes are switched to a reversed style, and the
// currently-selected match additionally gets a blink style.
func (t *TextItem) Highlight(word string) {
	t.ClearHighlight()
	if word == "" {
		return
	}
	needle := style.Parse(word)
	if len(needle) == 0 {
		return
	}
	h := Highlights{Word: word, Selected: -1}
	for li := range t.lines {
		line := &t.lines[li]
		for start := 0; start+len(needle) <= len(line.Graphemes); start++ {
			if !symbolsMatch(line.Graphemes[start:start+len(needle)], needle) {
				continue
			}
			end := start + len(needle)
			originals := make([]style.Style, end-start)
			for i := start; i < end; i++ {
				originals[i-start] = line.Graphemes[i].Style
				line.Graphemes[i].Style = line.Graphemes[i].Style.WithModifier(style.Reversed)
			}
			h.Matches = append(h.Matches, Highlight{
				LineIndex:          li,
				Start:              start,
				End:                end,
				OriginalRuns:       originals,
				FirstRowLineNumber: t.wrappedRowOf(li, start),
			})
		}
	}
	if len(h.Matches) > 0 {
		h.Selected = 0
		t.applyBlink(h.Matches[0], true)
	}
	t.highlight = h
}

func symbolsMatch(a, b []style.StyledGrapheme) bool {
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			return false
		}
	}
	return true
}

// wrappedRowOf returns the wrapped-projection row number of the first
// row that contains column `col` of source line `lineIdx`.
func (t *TextItem) wrappedRowOf(lineIdx, col int) int {
	for row, wl := range t.wrapped {
		if wl.LineIndex == lineIdx && col >= wl.Start && col < wl.End {
			return row
		}
	}
	// Column at the exact end of the line (e.g. empty trailing match).
	for row, wl := range t.wrapped {
		if wl.LineIndex == lineIdx && col == wl.End {
			return row
		}
	}
	return 0
}

func (t *TextItem) applyBlink(h Highlight, on bool) {
	line := &t.lines[h.LineIndex]
	for i := h.Start; i < h.End; i++ {
		if on {
			line.Graphemes[i].Style = line.Graphemes[i].Style.WithModifier(style.Blink)
		} else {
			line.Graphemes[i].Style = line.Graphemes[i].Style.WithoutModifier(style.Blink)
		}
	}
}

// ClearHighlight restores every covered grapheme's saved style. No-op
// if no highlight is active.
func (t *TextItem) ClearHighlight() {
	// Restore in reverse order so that, where matches overlap, the styles
	// saved by the earliest match (the true originals) are written last.
	for m := len(t.highlight.Matches) - 1; m >= 0; m-- {
		h := t.highlight.Matches[m]
		line := &t.lines[h.LineIndex]
		for i := h.Start; i < h.End; i++ {
			line.Graphemes[i].Style = h.OriginalRuns[i-h.Start]
		}
	}
	t.highlight = NoHighlight()
}

// Highlights exposes the current highlight state (read-only).
func (t *TextItem) Highlights() Highlights { return t.highlight }

// NextMatch advances to the next match, honoring the "jump to nearest on
// re-entry" rule: if currentRow (the viewport's horizontal midline, in
// wrapped-line-number space) is not on the currently selected match,
// next/prev jump to the match nearest currentRow instead of simply
// stepping the index. Returns the new selected match's first wrapped
// row, or -1 if there are no matches.
func (t *TextItem) NextMatch(currentRow int, onScreen bool) int {
	return t.stepMatch(currentRow, onScreen, true)
}

// PrevMatch is the symmetric counterpart of NextMatch.
func (t *TextItem) PrevMatch(currentRow int, onScreen bool) int {
	return t.stepMatch(currentRow, onScreen, false)
}

func (t *TextItem) stepMatch(midline int, onScreen, forward bool) int {
	if len(t.highlight.Matches) == 0 {
		return -1
	}
	var next int
	if !onScreen {
		next = t.highlight.Nearest(midline)
	} else if forward {
		next = t.highlight.Next(t.highlight.Selected)
	} else {
		next = t.highlight.Prev(t.highlight.Selected)
	}
	if t.highlight.Selected >= 0 && t.highlight.Selected < len(t.highlight.Matches) {
		t.applyBlink(t.highlight.Matches[t.highlight.Selected], false)
	}
	t.highlight.Selected = next
	t.applyBlink(t.highlight.Matches[next], true)
	return t.highlight.Matches[next].FirstRowLineNumber
}

// CopyRange concatenates the graphemes of wrapped rows [r1, r2] (by
// wrapped-projection row index), inserting a newline only between rows
// whose owning Line.Index differs — so a single wrapped source line
// copies back out as one unbroken line. When the selection stays
// within a single row (r1 == r2), the copy is additionally clipped to
// the column range [c1, c2) — the selected rectangle of spec §4.3 —
// rather than the whole row; multi-row selections copy each spanned
// row in full, matching ordinary terminal line-selection semantics.
func (t *TextItem) CopyRange(r1, c1, r2, c2 int) string {
	if r1 > r2 {
		r1, c1, r2, c2 = r2, c2, r1, c1
	}
	if r1 < 0 {
		r1 = 0
	}
	if r2 >= len(t.wrapped) {
		r2 = len(t.wrapped) - 1
	}
	if r2 < r1 {
		return ""
	}
	if r1 == r2 {
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		return sliceGraphemesByColumn(t.wrapped[r1].Graphemes(t.lines), c1, c2)
	}
	var b strings.Builder
	lastLineIndex := -1
	first := true
	for row := r1; row <= r2; row++ {
		wl := t.wrapped[row]
		if !first && wl.LineIndex != lastLineIndex {
			b.WriteByte('\n')
		}
		for _, g := range wl.Graphemes(t.lines) {
			b.WriteString(g.Symbol)
		}
		lastLineIndex = wl.LineIndex
		first = false
	}
	return b.String()
}

// sliceGraphemesByColumn returns the symbols of gs whose column span
// overlaps [startCol, endCol) (endCol < 0 means "to the end of the
// row"). Graphemes are never split: a grapheme is included whenever
// any part of it falls in range.
func sliceGraphemesByColumn(gs []style.StyledGrapheme, startCol, endCol int) string {
	var b strings.Builder
	col := 0
	for _, g := range gs {
		if endCol >= 0 && col >= endCol {
			break
		}
		if col+g.Width > startCol {
			b.WriteString(g.Symbol)
		}
		col += g.Width
	}
	return b.String()
}
