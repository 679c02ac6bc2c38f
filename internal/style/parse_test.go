package style

import "testing"

func TestParsePlainText(t *testing.T) {
	got := Parse("abc")
	if len(got) != 3 {
		t.Fatalf("got %d graphemes, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Symbol != want {
			t.Errorf("got[%d].Symbol = %q, want %q", i, got[i].Symbol, want)
		}
		if got[i].Style != Reset() {
			t.Errorf("got[%d].Style = %+v, want reset", i, got[i].Style)
		}
	}
}

func TestParseSGRBold(t *testing.T) {
	got := Parse("\x1b[1mhi\x1b[0m!")
	if len(got) != 3 {
		t.Fatalf("got %d graphemes, want 3", len(got))
	}
	if !got[0].Style.Modifier.Has(Bold) || !got[1].Style.Modifier.Has(Bold) {
		t.Errorf("expected first two graphemes to be bold: %+v", got)
	}
	if got[2].Style.Modifier.Has(Bold) {
		t.Errorf("expected reset to clear bold: %+v", got[2])
	}
}

func TestParseSGRForegroundColor(t *testing.T) {
	got := Parse("\x1b[31mred\x1b[39mplain")
	for i := 0; i < 3; i++ {
		if !got[i].Style.Fg.IsSet() {
			t.Errorf("got[%d].Style.Fg unset, want red", i)
		}
	}
	for i := 3; i < len(got); i++ {
		if got[i].Style.Fg.IsSet() {
			t.Errorf("got[%d].Style.Fg set, want unset after 39", i)
		}
	}
}

func TestParseStyleDecoupledFromSymbol(t *testing.T) {
	// Two graphemes with different symbols may share an identical style.
	got := Parse("\x1b[1mab")
	if got[0].Style != got[1].Style {
		t.Errorf("expected shared style, got %+v vs %+v", got[0].Style, got[1].Style)
	}
	if got[0].Symbol == got[1].Symbol {
		t.Fatalf("test setup invalid: symbols should differ")
	}
}

func TestParseWidthsConsistent(t *testing.T) {
	got := Parse("a")
	if got[0].Width != 1 {
		t.Errorf("ascii width = %d, want 1", got[0].Width)
	}
}

func TestParseUnterminatedEscapeIgnored(t *testing.T) {
	got := Parse("\x1b[31")
	if len(got) != 0 {
		t.Errorf("got %d graphemes for unterminated escape, want 0", len(got))
	}
}
