// Package text implements the text view engine: wrappable, searchable,
// mouse-selectable styled text, the hardest widget in the reactive data
// plane (spec §4.3). A TextItem owns its Lines and the WrappedLine
// projection over them; WrappedLine is a non-owning view expressed as
// an index triple (Go has no intra-struct borrows — see design notes),
// resolved back to a grapheme slice on read.
package text

import "github.com/kubetui/kubetui/internal/style"

// Line is one unwrapped source line: an ordered sequence of styled
// graphemes, its position in the source (Index), and the first row its
// wrapped projection occupies (Number, set on rewrap).
type Line struct {
	Graphemes []style.StyledGrapheme
	Index     int
	Number    int
}

// NewLine parses raw (possibly SGR-styled) text into a Line at the given
// source index.
func NewLine(raw string, index int) Line {
	return Line{Graphemes: style.Parse(raw), Index: index}
}

// WrappedLine is a non-owning view into a contiguous slice of a Line's
// graphemes: [Start, End) into TextItem.lines[LineIndex].Graphemes.
// The concatenation of every WrappedLine belonging to a Line equals
// that Line's Graphemes exactly; no grapheme is ever split across two
// WrappedLines.
type WrappedLine struct {
	LineIndex  int
	Start, End int
}

// Width returns the column width of the wrapped run the receiver
// describes, against the given Line slice (normally TextItem.lines).
func (w WrappedLine) Width(lines []Line) int {
	sum := 0
	for _, g := range lines[w.LineIndex].Graphemes[w.Start:w.End] {
		sum += g.Width
	}
	return sum
}

// Graphemes resolves the receiver against lines, returning the grapheme
// slice it denotes.
func (w WrappedLine) Graphemes(lines []Line) []style.StyledGrapheme {
	return lines[w.LineIndex].Graphemes[w.Start:w.End]
}
