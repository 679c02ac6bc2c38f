package style

import (
	"strconv"
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

const (
	esc       = 0x1b
	csiFinalM = 'm'
)

// Parse walks text, which may contain SGR (Select Graphic Rendition)
// escape sequences, and returns one StyledGrapheme per extended grapheme
// cluster in the non-escape content. SGR sequences mutate a running
// Style; every other cluster is emitted tagged with that running style.
//
// Grapheme segmentation is delegated to clipperhouse/uax29/v2 (Unicode
// UAX #29 extended grapheme clusters); column width is computed per
// cluster via mattn/go-runewidth's East Asian Width tables, taking the
// width of the cluster's base rune (combining marks contribute no extra
// width, matching terminal rendering).
func Parse(text string) []StyledGrapheme {
	out := make([]StyledGrapheme, 0, len(text))
	cur := Reset()

	var plain strings.Builder
	flush := func() {
		if plain.Len() == 0 {
			return
		}
		out = append(out, segment(plain.String(), cur)...)
		plain.Reset()
	}

	i := 0
	for i < len(text) {
		if text[i] == esc && i+1 < len(text) && text[i+1] == '[' {
			end := i + 2
			for end < len(text) && !isCSIFinal(text[end]) {
				end++
			}
			if end < len(text) && text[end] == csiFinalM {
				flush()
				cur = applySGR(cur, text[i+2:end])
				i = end + 1
				continue
			}
			// Not an SGR sequence (or malformed/unterminated): drop it so
			// unrelated CSI sequences (cursor moves etc.) and truncated
			// escapes never leak into the grapheme stream.
			if end < len(text) {
				i = end + 1
				continue
			}
			i = len(text)
			continue
		}
		plain.WriteByte(text[i])
		i++
	}
	flush()
	return out
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

// segment splits plain (no escape sequences) into grapheme clusters and
// tags each with style s.
func segment(plain string, s Style) []StyledGrapheme {
	out := make([]StyledGrapheme, 0, len(plain))
	seg := graphemes.NewSegmenter([]byte(plain))
	for seg.Next() {
		cluster := string(seg.Value())
		out = append(out, StyledGrapheme{
			Symbol: cluster,
			Width:  clusterWidth(cluster),
			Style:  s,
		})
	}
	return out
}

// clusterWidth returns the terminal column width of a grapheme cluster:
// 1 or 2, per East Asian Width rules applied to the cluster's leading
// rune. Tab is treated as width 1 here; callers that need tab expansion
// do so before reaching the styled-grapheme layer.
func clusterWidth(cluster string) int {
	if cluster == "\t" {
		return 1
	}
	w := runewidth.StringWidth(cluster)
	if w <= 0 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// applySGR folds one CSI "...m" parameter list (already stripped of the
// ESC [ prefix and the trailing 'm') into base, returning the resulting
// Style. Unknown codes are ignored rather than rejected, matching how
// real terminals behave with unsupported SGR extensions.
func applySGR(base Style, params string) Style {
	if params == "" {
		return Reset()
	}
	fields := strings.Split(params, ";")
	for i := 0; i < len(fields); i++ {
		code, err := strconv.Atoi(fields[i])
		if err != nil {
			continue
		}
		switch {
		case code == 0:
			base = Reset()
		case code == 1:
			base.Modifier |= Bold
		case code == 2:
			base.Modifier |= Dim
		case code == 3:
			base.Modifier |= Italic
		case code == 4:
			base.Modifier |= Underline
		case code == 5:
			base.Modifier |= Blink
		case code == 7:
			base.Modifier |= Reversed
		case code == 22:
			base.Modifier = base.Modifier &^ (Bold | Dim)
		case code == 23:
			base.Modifier = base.Modifier &^ Italic
		case code == 24:
			base.Modifier = base.Modifier &^ Underline
		case code == 25:
			base.Modifier = base.Modifier &^ Blink
		case code == 27:
			base.Modifier = base.Modifier &^ Reversed
		case code == 39:
			base.Fg = Color{}
		case code == 49:
			base.Bg = Color{}
		case code >= 30 && code <= 37:
			base.Fg = ansiColor(uint8(code - 30))
		case code >= 40 && code <= 47:
			base.Bg = ansiColor(uint8(code - 40))
		case code >= 90 && code <= 97:
			base.Fg = ansiColor(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			base.Bg = ansiColor(uint8(code - 100 + 8))
		case code == 38 || code == 48:
			consumed, color := parseExtendedColor(fields, i)
			if consumed == 0 {
				continue
			}
			if code == 38 {
				base.Fg = color
			} else {
				base.Bg = color
			}
			i += consumed
		}
	}
	return base
}

// parseExtendedColor handles the "38;5;N" (256-color) and "38;2;R;G;B"
// (truecolor) extended SGR color forms starting at fields[i] == "38"/"48".
// Returns how many additional fields were consumed (not counting fields[i]
// itself) and the resulting Color; consumed == 0 means malformed input.
func parseExtendedColor(fields []string, i int) (int, Color) {
	if i+1 >= len(fields) {
		return 0, Color{}
	}
	mode, err := strconv.Atoi(fields[i+1])
	if err != nil {
		return 0, Color{}
	}
	switch mode {
	case 5:
		if i+2 >= len(fields) {
			return 0, Color{}
		}
		n, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return 0, Color{}
		}
		return 2, ansiColor(uint8(n))
	case 2:
		if i+4 >= len(fields) {
			return 0, Color{}
		}
		r, err1 := strconv.Atoi(fields[i+2])
		g, err2 := strconv.Atoi(fields[i+3])
		b, err3 := strconv.Atoi(fields[i+4])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, Color{}
		}
		return 4, rgbColor(uint8(r), uint8(g), uint8(b))
	default:
		return 0, Color{}
	}
}
