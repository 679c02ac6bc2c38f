// Package ui wires the reactive core (supervisor, bus, widgets) into a
// bubbletea program — the layout/compositing scaffolding spec §1 calls
// out of scope for the core itself, kept here in the teacher's own
// Elm-architecture idiom (Model/Update/View).
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/kubeclient"
	"github.com/kubetui/kubetui/internal/list"
	"github.com/kubetui/kubetui/internal/supervisor"
	"github.com/kubetui/kubetui/internal/table"
	"github.com/kubetui/kubetui/internal/text"
	"github.com/kubetui/kubetui/internal/widget"
)

// Options configures the running program (the out-of-scope
// collaborators named in spec §1: kubeconfig resolution, CLI flags).
type Options struct {
	Kubeconfig string
	Context    string
	ReadOnly   bool
}

const (
	tabPods         = "pods"
	tabConfig       = "config"
	tabNetwork      = "network"
	tabEvents       = "events"
	tabLog          = "log"
	popupNamespaces = "namespaces"
)

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

// eventMsg wraps a bus.Event as a tea.Msg so the program's Update loop
// can fold bus traffic into the same dispatch as key/mouse input.
type eventMsg bus.Event

// Model is the bubbletea model gluing widget.Window to the supervisor.
type Model struct {
	win    *widget.Window
	pods   *table.Table
	config *table.Table
	net    *table.Table
	events *text.View
	logs   *text.View

	eventCh chan bus.Event
	reqCh   chan bus.Request

	width, height int
	status        string

	cancel context.CancelFunc
}

// New builds the Model and starts the supervisor loop in the
// background; cmd/kubetui runs it in a tea.Program.
func New(opts Options) *Model {
	eventCh := make(chan bus.Event, 64)
	reqCh := make(chan bus.Request, 16)

	win := widget.NewWindow()
	pods := table.New(tabPods)
	cfg := table.New(tabConfig)
	net := table.New(tabNetwork)
	events := text.NewView(tabEvents, text.NewTextItem())
	logs := text.NewView(tabLog, text.NewTextItem())

	win.Register(pods, widget.Rect{})
	win.Register(cfg, widget.Rect{})
	win.Register(net, widget.Rect{})
	win.Register(events, widget.Rect{})
	win.Register(logs, widget.Rect{})
	win.Focus(tabPods)

	m := &Model{
		win:     win,
		pods:    pods,
		config:  cfg,
		net:     net,
		events:  events,
		logs:    logs,
		eventCh: eventCh,
		reqCh:   reqCh,
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	startContext := opts.Context
	store := kubeclient.NewStore(opts.Kubeconfig)
	if startContext == "" {
		if current, err := store.CurrentContext(); err == nil {
			startContext = current
		}
	}
	sv := supervisor.New(store, bus.NewSender(eventCh), reqCh, startContext)
	go func() {
		if err := sv.Run(ctx); err != nil {
			eventCh <- bus.Event{Kind: bus.EventError, Err: err}
		}
	}()

	return m
}

func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.eventCh)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.cancel()
			return m, tea.Quit
		}
		if msg.String() == "tab" {
			m.cycleFocus()
			return m, nil
		}
		m.win.DispatchKey(toKeyEvent(msg))
		return m, nil

	case tea.MouseMsg:
		m.win.DispatchMouse(toMouseEvent(msg))
		return m, nil

	case eventMsg:
		m.applyEvent(bus.Event(msg))
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m *Model) cycleFocus() {
	order := []string{tabPods, tabConfig, tabNetwork, tabEvents, tabLog}
	cur := m.win.Focused()
	for i, id := range order {
		if id == cur {
			m.win.Focus(order[(i+1)%len(order)])
			return
		}
	}
	if len(order) > 0 {
		m.win.Focus(order[0])
	}
}

func (m *Model) layout() {
	if m.height < 2 {
		return
	}
	body := widget.Rect{X: 0, Y: 0, W: m.width, H: m.height - 1}
	for _, id := range []string{tabPods, tabConfig, tabNetwork, tabEvents, tabLog} {
		m.win.SetArea(id, body)
	}
}

// applyEvent folds one bus.Event into widget state, the UI-thread side
// of the bus contract (spec §4.10: "the UI thread applies them to
// widgets").
func (m *Model) applyEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.EventError:
		m.status = "error: " + ev.Err.Error()
	case bus.EventResponse:
		m.applyResponse(ev.Response)
	}
}

func (m *Model) applyResponse(r bus.Response) {
	switch r.Kind {
	case bus.RespPodTable:
		m.pods.SetItem(r.Table)
	case bus.RespConfigTable:
		m.config.SetItem(r.Table)
	case bus.RespNetworkList:
		m.net.SetItem(r.Table)
	case bus.RespEvent:
		m.events.Append(r.Lines...)
	case bus.RespLogOk:
		m.logs.Append(r.Lines...)
	case bus.RespLogErr:
		if r.Err != nil {
			m.logs.Append(r.Err.Error())
		}
	case bus.RespRestoreContext:
		m.status = "context: " + r.Context
	case bus.RespError:
		if r.Err != nil {
			m.status = "error: " + r.Err.Error()
		}
	}
}

func (m *Model) View() string {
	focused := m.win.Focused()
	var body []string
	switch focused {
	case tabPods:
		body = m.pods.Render()
	case tabConfig:
		body = m.config.Render()
	case tabNetwork:
		body = m.net.Render()
	case tabEvents:
		body = m.events.Render()
	case tabLog:
		body = m.logs.Render()
	}
	out := ""
	for _, row := range body {
		out += row + "\n"
	}
	return out + statusStyle.Render(fmt.Sprintf("[%s] %s", focused, m.status))
}

// OpenNamespacePopup demonstrates wiring a list.List into the window as
// a modal (spec §4.5): callers invoke this from a key binding once the
// namespace catalogue is known.
func (m *Model) OpenNamespacePopup(namespaces []string) *list.List {
	popup := list.New(popupNamespaces, namespaces, true)
	popup.OnChange(func(selected []string) {
		m.reqCh <- bus.Request{Kind: bus.ReqNamespaceSet, Namespaces: selected}
	})
	m.win.Register(popup, widget.Rect{X: 2, Y: 2, W: m.width - 4, H: m.height - 4})
	m.win.OpenPopup(popupNamespaces)
	return popup
}
