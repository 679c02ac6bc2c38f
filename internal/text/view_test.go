package text

import (
	"strings"
	"testing"

	"github.com/kubetui/kubetui/internal/widget"
)

func newTestView(h, w int, lines ...string) *View {
	item := NewTextItem()
	item.SetLines(lines)
	v := NewView("t", item)
	v.clipboardFunc = func(string) error { return nil }
	v.UpdateChunk(widget.Rect{W: w, H: h})
	return v
}

func TestViewFollowTracksAppend(t *testing.T) {
	v := newTestView(3, 20, "a", "b", "c")
	v.Append("d", "e")
	rows := v.Render()
	if !strings.HasPrefix(rows[2], "e") {
		t.Fatalf("expected follow mode to show last line, got %q", rows[2])
	}
}

func TestViewScrollDisablesFollow(t *testing.T) {
	v := newTestView(2, 20, "a", "b", "c", "d")
	v.OnKey(widget.KeyEvent{Name: "up"})
	if v.Follow() {
		t.Fatalf("expected follow to be disabled after manual scroll")
	}
	v.Append("e")
	rows := v.Render()
	if strings.HasPrefix(rows[0], "e") || strings.HasPrefix(rows[1], "e") {
		t.Fatalf("append should not move viewport while follow is off")
	}
}

func TestViewMouseDragCopiesSelection(t *testing.T) {
	v := newTestView(3, 20, "line one", "line two", "line three")
	var copied string
	v.clipboardFunc = func(s string) error { copied = s; return nil }
	v.OnMouse(widget.MouseEvent{Kind: widget.MouseDown, Column: 0, Row: 0})
	v.OnMouse(widget.MouseEvent{Kind: widget.MouseDrag, Column: 0, Row: 1})
	v.OnMouse(widget.MouseEvent{Kind: widget.MouseUp, Column: 0, Row: 1})
	if copied != "line one\nline two" {
		t.Fatalf("unexpected clipboard contents: %q", copied)
	}
}

func TestViewSearchNextWrapsAndCentersViewport(t *testing.T) {
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "filler")
	}
	lines[2] = "needle here"
	lines[15] = "needle there"
	v := newTestView(5, 20, lines...)
	if n := v.HighlightWord("needle"); n != 2 {
		t.Fatalf("expected 2 matches, got %d", n)
	}
	v.NextMatch()
	if v.Follow() {
		t.Fatalf("search navigation should disable follow")
	}
	v.NextMatch()
	h := v.item.Highlights()
	if h.Selected != 0 {
		t.Fatalf("expected selection to wrap back to the first match, got %d", h.Selected)
	}
}

func TestViewHorizontalClipMarkers(t *testing.T) {
	v := newTestView(1, 5, "abcd中")
	row := v.Render()[0]
	if !strings.HasSuffix(strings.TrimRight(row, " "), ">") && !strings.Contains(row, ">") {
		t.Fatalf("expected overflow marker in row %q", row)
	}
}

func TestViewRenderPadsShortLines(t *testing.T) {
	v := newTestView(2, 10, "hi")
	rows := v.Render()
	if len(rows[0]) != 10 {
		t.Fatalf("expected padded row width 10, got %d (%q)", len(rows[0]), rows[0])
	}
}
