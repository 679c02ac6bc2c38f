package style

// Wrap splits graphemes into successive maximal runs whose column-width
// sum is at most width, never splitting a grapheme across two runs. A
// single grapheme wider than width still forms a run of its own (the
// only way a run's width can exceed width).
//
// If width is nil, Wrap returns the whole input as one run — the
// "wrap disabled" case.
//
// Wrap is a pure function of (graphemes, width): same inputs, same
// output, independent of any TextItem state.
func Wrap(graphemes []StyledGrapheme, width *int) [][]StyledGrapheme {
	if width == nil {
		if len(graphemes) == 0 {
			return [][]StyledGrapheme{{}}
		}
		return [][]StyledGrapheme{graphemes}
	}
	w := *width
	if len(graphemes) == 0 {
		return [][]StyledGrapheme{{}}
	}

	var runs [][]StyledGrapheme
	start := 0
	col := 0
	for i, g := range graphemes {
		if col+g.Width > w && i > start {
			runs = append(runs, graphemes[start:i])
			start = i
			col = 0
		}
		col += g.Width
	}
	runs = append(runs, graphemes[start:])
	return runs
}

// WrapWidths returns, for each run Wrap(graphemes, width) would produce,
// its summed column width. Useful for tests and for callers that need
// the width without re-walking the runs.
func WrapWidths(runs [][]StyledGrapheme) []int {
	out := make([]int, len(runs))
	for i, r := range runs {
		sum := 0
		for _, g := range r {
			sum += g.Width
		}
		out[i] = sum
	}
	return out
}
