package text

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/kubetui/kubetui/internal/style"
	"github.com/kubetui/kubetui/internal/widget"
	"k8s.io/klog/v2"
)

// View is the scrollable, searchable, mouse-selectable text widget
// (spec §4.3) wrapping a TextItem with viewport state. It satisfies
// widget.Widget so the window router can dispatch to it like any other
// pane.
type View struct {
	id   string
	item *TextItem

	area widget.Rect

	scrollY, scrollX int
	follow           bool

	dragging     bool
	dragStart    point
	dragEnd      point
	dragFollowed bool // follow state snapshotted at mouse-down, restored at mouse-up

	// clipboardFunc defaults to clipboard.WriteAll but is overridable for
	// tests — clipboard failures are logged, never raised (spec §4.3
	// error policy: selection is not a data-integrity boundary).
	clipboardFunc func(string) error
}

type point struct{ x, y int }

// NewView creates a text view over item, with follow mode enabled.
func NewView(id string, item *TextItem) *View {
	return &View{id: id, item: item, follow: true, clipboardFunc: clipboard.WriteAll}
}

func (v *View) ID() string { return v.id }

func (v *View) CanActivate() bool { return true }

func (v *View) UpdateChunk(r widget.Rect) {
	shrinking := r.H < v.area.H
	v.area = r
	v.clampScroll()
	if v.follow && (shrinking || v.atBottomAfterResize()) {
		v.scrollToBottom()
	}
}

func (v *View) atBottomAfterResize() bool {
	return v.scrollY >= v.maxScrollY()
}

// Item exposes the underlying TextItem so callers can mutate content,
// set wrap width, or drive search.
func (v *View) Item() *TextItem { return v.item }

// SetWrapWidth forwards to the TextItem and reacts to width changes
// that might require pinning horizontal scroll (wrapping pins x to 0).
func (v *View) SetWrapWidth(width *int) {
	v.item.SetWrapWidth(width)
	if width != nil {
		v.scrollX = 0
	}
	v.clampScroll()
}

// Append adds lines to the content and, in follow mode, advances the
// viewport to stay at the bottom.
func (v *View) Append(lines ...string) {
	v.item.Append(lines...)
	if v.follow {
		v.scrollToBottom()
	} else {
		v.clampScroll()
	}
}

func (v *View) maxScrollY() int {
	max := v.item.WrappedLineCount() - v.area.H
	if max < 0 {
		return 0
	}
	return max
}

func (v *View) maxScrollX() int {
	if v.item.WrapWidth() != nil {
		return 0
	}
	max := v.item.MaxLineWidth() - v.area.W
	if max < 0 {
		return 0
	}
	return max
}

func (v *View) clampScroll() {
	if v.scrollY < 0 {
		v.scrollY = 0
	}
	if max := v.maxScrollY(); v.scrollY > max {
		v.scrollY = max
	}
	if v.item.WrapWidth() != nil {
		v.scrollX = 0
	} else {
		if v.scrollX < 0 {
			v.scrollX = 0
		}
		if max := v.maxScrollX(); v.scrollX > max {
			v.scrollX = max
		}
	}
}

func (v *View) scrollToBottom() {
	v.scrollY = v.maxScrollY()
}

// Follow reports whether follow mode is currently active.
func (v *View) Follow() bool { return v.follow }

// SetFollow enables or disables follow mode explicitly (e.g. a "G" key
// binding). Enabling immediately snaps the viewport to the bottom.
func (v *View) SetFollow(on bool) {
	v.follow = on
	if on {
		v.scrollToBottom()
	}
}

func (v *View) scrollLines(delta int) {
	v.follow = false
	v.scrollY += delta
	v.clampScroll()
}

// OnKey handles scrolling keys. Any explicit user scroll disables
// follow mode (spec §4.3).
func (v *View) OnKey(ev widget.KeyEvent) bool {
	switch ev.Name {
	case "up", "k":
		v.scrollLines(-1)
	case "down", "j":
		v.scrollY++
		v.follow = false
		v.clampScroll()
	case "pgup":
		v.scrollLines(-v.area.H)
	case "pgdown":
		v.scrollY += v.area.H
		v.follow = false
		v.clampScroll()
	case "home":
		v.follow = false
		v.scrollY = 0
	case "end":
		v.follow = true
		v.scrollToBottom()
	case "left":
		v.scrollX--
		v.clampScroll()
	case "right":
		v.scrollX++
		v.clampScroll()
	default:
		return false
	}
	return true
}

// OnMouse implements drag-to-select and the scroll wheel.
func (v *View) OnMouse(ev widget.MouseEvent) bool {
	switch ev.Kind {
	case widget.MouseScrollUp:
		v.scrollLines(-3)
		return true
	case widget.MouseScrollDown:
		v.scrollY += 3
		v.follow = false
		v.clampScroll()
		return true
	case widget.MouseDown:
		v.dragging = true
		v.dragFollowed = v.follow
		v.follow = false
		v.dragStart = point{x: ev.Column + v.scrollX, y: ev.Row + v.scrollY}
		v.dragEnd = v.dragStart
		return true
	case widget.MouseDrag:
		if !v.dragging {
			return false
		}
		v.dragEnd = point{x: ev.Column + v.scrollX, y: ev.Row + v.scrollY}
		return true
	case widget.MouseUp:
		if !v.dragging {
			return false
		}
		v.dragging = false
		v.copySelection()
		v.follow = v.dragFollowed
		return true
	}
	return false
}

func (v *View) copySelection() {
	r1, r2 := v.dragStart.y, v.dragEnd.y
	c1, c2 := v.dragStart.x, v.dragEnd.x
	if r1 > r2 {
		r1, r2 = r2, r1
		c1, c2 = c2, c1
	}
	if r1 < 0 {
		r1 = 0
	}
	if r2 >= v.item.WrappedLineCount() {
		r2 = v.item.WrappedLineCount() - 1
	}
	if r2 < r1 {
		return
	}
	text := v.item.CopyRange(r1, c1, r2, c2)
	if text == "" {
		return
	}
	if err := v.clipboardFunc(text); err != nil {
		klog.V(2).Infof("text view: clipboard export failed: %v", err)
	}
}

// Dragging reports whether a selection drag is in progress (for render
// overlay purposes).
func (v *View) Dragging() bool { return v.dragging }

// SelectionRows returns the current drag selection's row range in
// wrapped-projection coordinates, normalized so the first is <= second.
func (v *View) SelectionRows() (int, int) {
	r1, r2 := v.dragStart.y, v.dragEnd.y
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return r1, r2
}

// HighlightWord starts a new search and returns the number of matches.
func (v *View) HighlightWord(word string) int {
	v.item.Highlight(word)
	return len(v.item.Highlights().Matches)
}

// ClearSearch clears the active highlight, restoring original styles.
func (v *View) ClearSearch() { v.item.ClearHighlight() }

// NextMatch centers the viewport on the next match, honoring the
// nearest-on-re-entry rule when the currently selected match isn't
// visible in the viewport.
func (v *View) NextMatch() { v.jumpToMatch(v.item.NextMatch) }

// PrevMatch is the symmetric counterpart of NextMatch.
func (v *View) PrevMatch() { v.jumpToMatch(v.item.PrevMatch) }

func (v *View) jumpToMatch(step func(midline int, onScreen bool) int) {
	midline := v.scrollY + v.area.H/2
	onScreen := v.selectedMatchOnScreen()
	row := step(midline, onScreen)
	if row < 0 {
		return
	}
	v.follow = false
	v.scrollY = row - v.area.H/2
	v.clampScroll()
}

func (v *View) selectedMatchOnScreen() bool {
	h := v.item.Highlights()
	if h.Selected < 0 || h.Selected >= len(h.Matches) {
		return false
	}
	row := h.Matches[h.Selected].FirstRowLineNumber
	return row >= v.scrollY && row < v.scrollY+v.area.H
}

// Render produces the visible rows, applying horizontal clipping with
// the `<`/`>` partial-grapheme markers described in spec §4.3, SGR
// escapes for every styled grapheme (search highlight/blink, any SGR
// carried in the source text), and a reversed-video selection overlay
// while a drag is in progress.
func (v *View) Render() []string {
	out := make([]string, 0, v.area.H)
	lines := v.item.Lines()

	selecting := v.dragging
	var selR1, selR2, selC1, selC2 int
	if selecting {
		selR1, selC1 = v.dragStart.y, v.dragStart.x
		selR2, selC2 = v.dragEnd.y, v.dragEnd.x
		if selR1 > selR2 {
			selR1, selR2 = selR2, selR1
			selC1, selC2 = selC2, selC1
		}
	}

	for row := 0; row < v.area.H; row++ {
		wrappedIdx := v.scrollY + row
		if wrappedIdx >= v.item.WrappedLineCount() {
			out = append(out, "")
			continue
		}
		wl := v.item.WrappedLines()[wrappedIdx]
		graphemes := wl.Graphemes(lines)
		if selecting && wrappedIdx >= selR1 && wrappedIdx <= selR2 {
			lo, hi := 0, -1
			switch {
			case selR1 == selR2:
				lo, hi = selC1, selC2
				if lo > hi {
					lo, hi = hi, lo
				}
			case wrappedIdx == selR1:
				lo = selC1
			case wrappedIdx == selR2:
				hi = selC2
			}
			graphemes = overlaySelection(graphemes, lo, hi)
		}
		out = append(out, renderRow(graphemes, v.scrollX, v.area.W))
	}
	return out
}

// overlaySelection returns a copy of gs with the Reversed modifier
// applied to the column range [lo, hi) (hi < 0 means "to the end of
// the row"). It never mutates gs, which aliases the owning Line's
// backing array.
func overlaySelection(gs []style.StyledGrapheme, lo, hi int) []style.StyledGrapheme {
	out := make([]style.StyledGrapheme, len(gs))
	col := 0
	for i, g := range gs {
		out[i] = g
		if col >= lo && (hi < 0 || col < hi) {
			out[i].Style = g.Style.WithModifier(style.Reversed)
		}
		col += g.Width
	}
	return out
}

// renderRow walks a WrappedLine's graphemes starting at column offset
// xOffset, emitting exactly width columns plus whatever SGR escapes are
// needed to reproduce each grapheme's Style. A `<` pads a clipped
// leading half of a double-width grapheme at the left edge; a `>`
// replaces a trailing double-width grapheme that would overflow the
// right edge by one column. No grapheme is ever partially drawn.
func renderRow(graphemes []style.StyledGrapheme, xOffset, width int) string {
	var b strings.Builder
	col := 0
	skip := xOffset
	cur := style.Reset()
	styled := false
	setStyle := func(s style.Style) {
		if s == cur {
			return
		}
		cur = s
		styled = true
		b.WriteString(style.SGRReset)
		b.WriteString(s.SGR())
	}
	for _, g := range graphemes {
		if skip > 0 {
			if g.Width <= skip {
				skip -= g.Width
				continue
			}
			// landed mid-grapheme: emit the left-padding marker then stop
			// skipping.
			b.WriteByte('<')
			col++
			skip = 0
			continue
		}
		if col+g.Width > width {
			if col < width {
				b.WriteByte('>')
				col++
			}
			break
		}
		setStyle(g.Style)
		b.WriteString(g.Symbol)
		col += g.Width
	}
	for col < width {
		b.WriteByte(' ')
		col++
	}
	if styled && cur != style.Reset() {
		b.WriteString(style.SGRReset)
	}
	return b.String()
}

var _ widget.Widget = (*View)(nil)
