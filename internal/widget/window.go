package widget

// Window owns the finite set of widgets that make up one pane layout
// and routes input to the right one: key events go to the focused
// widget (or the modal popup, if one is open); mouse events go to
// whichever widget's chunk contains the event's cell.
//
// Window is the "dynamic dispatch" site spec §9 calls for: it treats
// every registered widget through the common Widget interface, so
// adding a new pane kind never touches the router itself.
type Window struct {
	widgets []Widget
	areas   map[string]Rect
	focused string
	// popup, when non-empty, names the widget that has modal focus: all
	// key events go to it exclusively and mouse events outside its area
	// are swallowed, regardless of what the mouse would otherwise hit.
	popup string
}

// NewWindow creates an empty Window.
func NewWindow() *Window {
	return &Window{areas: make(map[string]Rect)}
}

// Register adds w to the window at area. It does not check for an
// already registered widget with the same ID.
func (win *Window) Register(w Widget, area Rect) {
	win.widgets = append(win.widgets, w)
	win.areas[w.ID()] = area
	w.UpdateChunk(area)
	if win.focused == "" && w.CanActivate() {
		win.focused = w.ID()
	}
}

// SetArea updates a registered widget's screen area and notifies it.
func (win *Window) SetArea(id string, area Rect) {
	win.areas[id] = area
	if w := win.find(id); w != nil {
		w.UpdateChunk(area)
	}
}

// Focus sets the keyboard-focused widget, if it exists and can activate.
func (win *Window) Focus(id string) bool {
	w := win.find(id)
	if w == nil || !w.CanActivate() {
		return false
	}
	win.focused = id
	return true
}

// Focused returns the ID of the currently focused widget.
func (win *Window) Focused() string { return win.focused }

// OpenPopup gives id exclusive modal focus: subsequent key events go
// only to it until ClosePopup is called.
func (win *Window) OpenPopup(id string) {
	win.popup = id
}

// ClosePopup ends modal focus, returning focus routing to the normal
// focused widget.
func (win *Window) ClosePopup() {
	win.popup = ""
}

// InPopup reports whether a modal popup currently holds focus.
func (win *Window) InPopup() bool { return win.popup != "" }

// DispatchKey routes a key event to the modal popup if one is open,
// otherwise to the focused widget.
func (win *Window) DispatchKey(ev KeyEvent) bool {
	target := win.focused
	if win.popup != "" {
		target = win.popup
	}
	w := win.find(target)
	if w == nil {
		return false
	}
	return w.OnKey(ev)
}

// DispatchMouse hit-tests ev.Column/ev.Row against every registered
// widget's area and routes the event (translated to widget-local
// coordinates) to the first match. While a popup is open, only the
// popup's own area is eligible — mouse activity elsewhere is swallowed,
// matching the modal semantics of DispatchKey.
func (win *Window) DispatchMouse(ev MouseEvent) bool {
	if win.popup != "" {
		area, ok := win.areas[win.popup]
		if !ok || !area.Contains(ev.Column, ev.Row) {
			return false
		}
		return win.dispatchMouseTo(win.popup, area, ev)
	}
	for _, w := range win.widgets {
		area := win.areas[w.ID()]
		if area.Contains(ev.Column, ev.Row) {
			if ev.Kind == MouseDown {
				win.Focus(w.ID())
			}
			return win.dispatchMouseTo(w.ID(), area, ev)
		}
	}
	return false
}

func (win *Window) dispatchMouseTo(id string, area Rect, ev MouseEvent) bool {
	w := win.find(id)
	if w == nil {
		return false
	}
	local := ev
	local.Column -= area.X
	local.Row -= area.Y
	return w.OnMouse(local)
}

func (win *Window) find(id string) Widget {
	for _, w := range win.widgets {
		if w.ID() == id {
			return w
		}
	}
	return nil
}
