package text

import "github.com/kubetui/kubetui/internal/style"

// Highlight records one match of a search word: the Line it belongs to,
// the grapheme range it covers, and the original style of every covered
// grapheme so the highlight can be reversed exactly.
type Highlight struct {
	LineIndex    int
	Start, End   int // grapheme range within the owning Line
	OriginalRuns []style.Style
	// FirstRowLineNumber is the match's first row in the wrapped
	// projection at the time it was recorded; used to pick the nearest
	// match to the viewport midline on re-entry (see Highlights.Nearest).
	FirstRowLineNumber int
}

// Highlights holds every match for one search word plus the currently
// selected index (-1 when there are no matches).
type Highlights struct {
	Word     string
	Matches  []Highlight
	Selected int
}

// NoHighlight is the zero-match, "no active search" state.
func NoHighlight() Highlights { return Highlights{Selected: -1} }

// Active reports whether a search word is currently in effect (even with
// zero matches — clearing requires an explicit ClearHighlight call).
func (h Highlights) Active() bool { return h.Word != "" }

// Next returns the index to select after stepping forward circularly.
// If from is out of range (e.g. -1, meaning no match is on-screen),
// callers should use Nearest instead.
func (h Highlights) Next(from int) int {
	if len(h.Matches) == 0 {
		return -1
	}
	return (from + 1 + len(h.Matches)) % len(h.Matches)
}

// Prev returns the index to select after stepping backward circularly.
func (h Highlights) Prev(from int) int {
	if len(h.Matches) == 0 {
		return -1
	}
	return (from - 1 + len(h.Matches)) % len(h.Matches)
}

// Nearest returns the index of the match whose FirstRowLineNumber is
// closest to midline, used for the "jump to nearest on re-entry" rule:
// when no match is currently visible, next/prev jump to whichever match
// is nearest the viewport's horizontal midline rather than wrapping to
// match index 0.
func (h Highlights) Nearest(midline int) int {
	if len(h.Matches) == 0 {
		return -1
	}
	best := 0
	bestDist := abs(h.Matches[0].FirstRowLineNumber - midline)
	for i := 1; i < len(h.Matches); i++ {
		d := abs(h.Matches[i].FirstRowLineNumber - midline)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
