package list

import (
	"reflect"
	"testing"

	"github.com/kubetui/kubetui/internal/widget"
)

func TestListSingleSelectReplacesPriorChoice(t *testing.T) {
	l := New("ns", []string{"default", "kube-system", "staging"}, false)
	l.OnKey(widget.KeyEvent{Name: "enter"})
	l.move(1)
	l.OnKey(widget.KeyEvent{Name: "down"})
	l.OnKey(widget.KeyEvent{Name: "enter"})
	if got := l.Selected(); len(got) != 1 {
		t.Fatalf("single-select must hold exactly one item, got %v", got)
	}
}

func TestListMultiSelectTogglesMembership(t *testing.T) {
	l := New("ns", []string{"a", "b", "c"}, true)
	l.OnKey(widget.KeyEvent{Name: "enter"}) // select a
	l.OnKey(widget.KeyEvent{Name: "down"})
	l.OnKey(widget.KeyEvent{Name: "enter"}) // select b
	if got := l.Selected(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	l.focus = focusCandidates
	l.candidateIdx = 0
	l.OnKey(widget.KeyEvent{Name: "enter"}) // deselect a
	if got := l.Selected(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected [b] after toggling a off, got %v", got)
	}
}

func TestListTabTogglesFocus(t *testing.T) {
	l := New("ns", []string{"a", "b"}, true)
	if l.focus != focusCandidates {
		t.Fatalf("expected initial focus on candidates")
	}
	l.OnKey(widget.KeyEvent{Name: "tab"})
	if l.focus != focusSelected {
		t.Fatalf("expected tab to move focus to selected list")
	}
}

func TestListFuzzyFilterNarrowsCandidates(t *testing.T) {
	l := New("ns", []string{"kube-system", "kube-public", "default"}, false)
	for _, r := range "kube" {
		l.OnKey(widget.KeyEvent{Runes: []rune{r}})
	}
	cands := l.candidates()
	if len(cands) != 2 {
		t.Fatalf("expected 2 fuzzy matches for 'kube', got %d: %v", len(cands), cands)
	}
}

func TestListOnChangeFiresOnToggle(t *testing.T) {
	l := New("ns", []string{"a"}, true)
	var got []string
	l.OnChange(func(s []string) { got = s })
	l.OnKey(widget.KeyEvent{Name: "enter"})
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected onChange callback with [a], got %v", got)
	}
}
