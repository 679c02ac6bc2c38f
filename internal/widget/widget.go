// Package widget defines the shared contract every pane in the terminal
// UI implements, and the window-level dispatch (focus, mouse hit
// testing, key routing, popup modality) that routes input to whichever
// widget currently owns it (spec §9, "dynamic dispatch").
//
// This package intentionally knows nothing about Kubernetes, the bus, or
// bubbletea's tea.Model — it is the seam between the reactive core and
// the layout/compositing scaffolding named out of scope in spec §1.
package widget

// Rect is an axis-aligned screen region in terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (col, row) falls inside r.
func (r Rect) Contains(col, row int) bool {
	return col >= r.X && col < r.X+r.W && row >= r.Y && row < r.Y+r.H
}

// KeyEvent is a single keystroke, decoupled from any specific terminal
// library's key type so widgets stay testable without a real terminal.
type KeyEvent struct {
	Name  string // e.g. "enter", "esc", "up", "tab", "ctrl+c", or a literal rune string
	Runes []rune
}

// MouseEventKind enumerates the mouse actions widgets must handle.
type MouseEventKind int

const (
	MouseDown MouseEventKind = iota
	MouseDrag
	MouseUp
	MouseScrollUp
	MouseScrollDown
)

// MouseButton identifies which button produced a MouseDown/Up event.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// MouseEvent is a single mouse action at a terminal cell, in the
// window's coordinate space (widgets translate against their own Rect).
type MouseEvent struct {
	Kind   MouseEventKind
	Button MouseButton
	Column int
	Row    int
}

// Widget is the contract every pane (text view, table, list popup)
// implements so the window's event router can dispatch to whichever one
// is focused or hit-tested, without a type switch over concrete widgets.
type Widget interface {
	// ID returns a stable identifier used for focus tracking and popup
	// modality checks.
	ID() string
	// Render produces the widget's visible content for its current
	// chunk, one string per row, top to bottom.
	Render() []string
	// OnKey handles a key event; handled is false if the widget did not
	// consume it (the router returns that result; no other widget is tried).
	OnKey(KeyEvent) (handled bool)
	// OnMouse handles a mouse event addressed to the widget's own chunk
	// (already translated to widget-local coordinates by the router).
	OnMouse(MouseEvent) (handled bool)
	// UpdateChunk informs the widget of its new screen area; widgets
	// that wrap text must rewrap, tables must recompute column widths.
	UpdateChunk(Rect)
	// CanActivate reports whether the widget may currently receive
	// focus (e.g. a disabled tab pane returns false).
	CanActivate() bool
}
