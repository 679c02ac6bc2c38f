package ui

import (
	"testing"

	"github.com/kubetui/kubetui/internal/bus"
	"github.com/kubetui/kubetui/internal/table"
	"github.com/kubetui/kubetui/internal/text"
	"github.com/kubetui/kubetui/internal/widget"
)

func newTestModel() *Model {
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
	return &Model{win: win, pods: pods, config: cfg, net: net, events: events, logs: logs, reqCh: make(chan bus.Request, 4)}
}

func TestCycleFocusWrapsAround(t *testing.T) {
	m := newTestModel()
	if m.win.Focused() != tabPods {
		t.Fatalf("expected initial focus on pods")
	}
	m.cycleFocus()
	if m.win.Focused() != tabConfig {
		t.Fatalf("expected focus to move to config, got %s", m.win.Focused())
	}
	for i := 0; i < 4; i++ {
		m.cycleFocus()
	}
	if m.win.Focused() != tabPods {
		t.Fatalf("expected focus to wrap back to pods, got %s", m.win.Focused())
	}
}

func TestApplyResponseRoutesPodTableToPodsWidget(t *testing.T) {
	m := newTestModel()
	item := table.Item{Header: []string{"NAME"}, Rows: []table.Row{{Cells: []string{"web-1"}}}}
	m.applyResponse(bus.Response{Kind: bus.RespPodTable, Table: item})
	row, ok := m.pods.SelectedRow()
	if !ok || row.Cells[0] != "web-1" {
		t.Fatalf("expected pod table applied to pods widget, got %+v ok=%v", row, ok)
	}
}

func TestApplyResponseAppendsLogLines(t *testing.T) {
	m := newTestModel()
	m.applyResponse(bus.Response{Kind: bus.RespLogOk, Lines: []string{"hello", "world"}})
	if m.logs.Item().LineCount() != 2 {
		t.Fatalf("expected 2 log lines appended, got %d", m.logs.Item().LineCount())
	}
}

func TestApplyResponseSetsStatusOnError(t *testing.T) {
	m := newTestModel()
	m.applyResponse(bus.Response{Kind: bus.RespError, Err: errTest{}})
	if m.status == "" {
		t.Fatalf("expected status to be set on error response")
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
