// Package style models the styled-grapheme primitives the rest of the
// reactive data plane is built on: a visible character cell (symbol +
// style) and the SGR-aware parser that turns raw, possibly-ANSI text
// into a slice of them.
package style

import (
	"strconv"
	"strings"
)

// Modifier is a bitset of text attributes, independent of color.
type Modifier uint8

const (
	ModifierNone Modifier = 0
	Bold         Modifier = 1 << 0
	Italic       Modifier = 1 << 1
	Dim          Modifier = 1 << 2
	Underline    Modifier = 1 << 3
	Reversed     Modifier = 1 << 4
	Blink        Modifier = 1 << 5
)

// Has reports whether m carries every bit set in other.
func (m Modifier) Has(other Modifier) bool { return m&other == other }

// Color is a resolved ANSI/256/truecolor terminal color. The zero value
// means "unset" (inherit the terminal's default).
type Color struct {
	set   bool
	ansi  uint8 // used when !truecolor
	r     uint8
	g     uint8
	b     uint8
	trueC bool
}

// IsSet reports whether the color was explicitly assigned by an SGR code.
func (c Color) IsSet() bool { return c.set }

func ansiColor(code uint8) Color   { return Color{set: true, ansi: code} }
func rgbColor(r, g, b uint8) Color { return Color{set: true, trueC: true, r: r, g: g, b: b} }

// Style is the SGR-derived appearance of a grapheme: foreground color,
// background color, and a modifier bitset. Style is decoupled from
// symbol identity — two StyledGraphemes may carry an identical Style.
type Style struct {
	Fg       Color
	Bg       Color
	Modifier Modifier
}

// Reset returns the default, unstyled Style — the SGR "0" state.
func Reset() Style { return Style{} }

// WithModifier returns a copy of s with m added to its modifier set.
func (s Style) WithModifier(m Modifier) Style {
	s.Modifier |= m
	return s
}

// WithoutModifier returns a copy of s with m removed from its modifier set.
func (s Style) WithoutModifier(m Modifier) Style {
	s.Modifier &^= m
	return s
}

// StyledGrapheme is one user-visible character cell: a single extended
// grapheme cluster and the style in effect when it was parsed.
//
// Invariant: Width is 1 or 2 (terminal columns); Style never depends on
// Symbol, so cells with different symbols may legitimately share a Style
// value and vice versa.
type StyledGrapheme struct {
	Symbol string
	Width  int
	Style  Style
}

// PlaceholderCell returns a synthetic StyledGrapheme used by the text
// view's renderer to pad a clipped double-width grapheme at a viewport
// edge (see internal/text). It carries no real content.
func PlaceholderCell(symbol string, s Style) StyledGrapheme {
	return StyledGrapheme{Symbol: symbol, Width: 1, Style: s}
}

// sgrCodes returns the SGR parameter(s) selecting c as a foreground
// (base 30) or background (base 40) color.
func (c Color) sgrCodes(base int) []string {
	switch {
	case c.trueC:
		return []string{strconv.Itoa(base + 8), "2", strconv.Itoa(int(c.r)), strconv.Itoa(int(c.g)), strconv.Itoa(int(c.b))}
	case c.ansi < 8:
		return []string{strconv.Itoa(base + int(c.ansi))}
	case c.ansi < 16:
		return []string{strconv.Itoa(base + 60 + int(c.ansi) - 8)}
	default:
		return []string{strconv.Itoa(base + 8), "5", strconv.Itoa(int(c.ansi))}
	}
}

// SGR renders s as the ANSI SGR escape sequence that sets exactly this
// style from a clean terminal state; the zero Style renders as "".
func (s Style) SGR() string {
	var codes []string
	if s.Modifier.Has(Bold) {
		codes = append(codes, "1")
	}
	if s.Modifier.Has(Dim) {
		codes = append(codes, "2")
	}
	if s.Modifier.Has(Italic) {
		codes = append(codes, "3")
	}
	if s.Modifier.Has(Underline) {
		codes = append(codes, "4")
	}
	if s.Modifier.Has(Blink) {
		codes = append(codes, "5")
	}
	if s.Modifier.Has(Reversed) {
		codes = append(codes, "7")
	}
	if s.Fg.IsSet() {
		codes = append(codes, s.Fg.sgrCodes(30)...)
	}
	if s.Bg.IsSet() {
		codes = append(codes, s.Bg.sgrCodes(40)...)
	}
	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// SGRReset is the ANSI sequence that clears every SGR attribute.
const SGRReset = "\x1b[0m"

func (c Color) String() string {
	switch {
	case !c.set:
		return "default"
	case c.trueC:
		return "#" + hex(c.r) + hex(c.g) + hex(c.b)
	default:
		return "ansi(" + strconv.Itoa(int(c.ansi)) + ")"
	}
}

func hex(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}
