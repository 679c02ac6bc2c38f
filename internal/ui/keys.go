package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubetui/kubetui/internal/widget"
)

// toKeyEvent translates a bubbletea key message into the
// terminal-library-agnostic widget.KeyEvent the widget package expects.
func toKeyEvent(msg tea.KeyMsg) widget.KeyEvent {
	switch msg.Type {
	case tea.KeyRunes:
		return widget.KeyEvent{Runes: msg.Runes}
	case tea.KeyUp:
		return widget.KeyEvent{Name: "up"}
	case tea.KeyDown:
		return widget.KeyEvent{Name: "down"}
	case tea.KeyLeft:
		return widget.KeyEvent{Name: "left"}
	case tea.KeyRight:
		return widget.KeyEvent{Name: "right"}
	case tea.KeyEnter:
		return widget.KeyEvent{Name: "enter"}
	case tea.KeyEsc:
		return widget.KeyEvent{Name: "esc"}
	case tea.KeyTab:
		return widget.KeyEvent{Name: "tab"}
	case tea.KeyBackspace:
		return widget.KeyEvent{Name: "backspace"}
	case tea.KeyPgUp:
		return widget.KeyEvent{Name: "pgup"}
	case tea.KeyPgDown:
		return widget.KeyEvent{Name: "pgdown"}
	case tea.KeyHome:
		return widget.KeyEvent{Name: "home"}
	case tea.KeyEnd:
		return widget.KeyEvent{Name: "end"}
	default:
		return widget.KeyEvent{Name: msg.String()}
	}
}

// toMouseEvent translates a bubbletea mouse message.
func toMouseEvent(msg tea.MouseMsg) widget.MouseEvent {
	ev := widget.MouseEvent{Column: msg.X, Row: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		ev.Kind = widget.MouseDown
	case tea.MouseActionMotion:
		ev.Kind = widget.MouseDrag
	case tea.MouseActionRelease:
		ev.Kind = widget.MouseUp
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		ev.Kind = widget.MouseScrollUp
	case tea.MouseButtonWheelDown:
		ev.Kind = widget.MouseScrollDown
	case tea.MouseButtonLeft:
		ev.Button = widget.ButtonLeft
	case tea.MouseButtonRight:
		ev.Button = widget.ButtonRight
	case tea.MouseButtonMiddle:
		ev.Button = widget.ButtonMiddle
	}
	return ev
}
