// Package pages expands textual page-range specs ("1-3,5") into ordered
// page lists for job delivery.
package pages

import (
	"strconv"
	"strings"
	"unicode"
)

// MaxPages bounds how many pages a single job may carry.
const MaxPages = 2000

// Parse expands a comma-separated range spec into an ordered list of
// 1-based page indices. Tokens are either a single page "N" or a range
// "N-M"; "N-M" with M < N yields a descending sequence. Endpoints must
// lie within 1..totalPages. Any malformed or out-of-range token
// invalidates the whole spec, which then falls back to the full 1-total
// range. An empty spec also means the full range.
func Parse(rangeSpec string, totalPages int) []int {
	if totalPages < 1 {
		return nil
	}
	if totalPages > MaxPages {
		totalPages = MaxPages
	}

	spec := strings.TrimSpace(rangeSpec)
	if spec == "" {
		return fullRange(totalPages)
	}

	var out []int
	for _, tok := range strings.Split(spec, ",") {
		pages, ok := expandToken(tok, totalPages)
		if !ok {
			return fullRange(totalPages)
		}
		out = append(out, pages...)
		if len(out) >= MaxPages {
			out = out[:MaxPages]
			break
		}
	}
	return out
}

func fullRange(totalPages int) []int {
	out := make([]int, totalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// expandToken parses one "N" or "N-M" token. Whitespace inside the token
// is skipped; a dash switches accumulation to the end number.
func expandToken(tok string, totalPages int) ([]int, bool) {
	var begin, end strings.Builder
	dashed := false

	for _, r := range tok {
		switch {
		case unicode.IsSpace(r):
		case r == '-':
			dashed = true
			end.Reset()
		case dashed:
			end.WriteRune(r)
		default:
			begin.WriteRune(r)
		}
	}

	first, err := strconv.Atoi(begin.String())
	if err != nil {
		return nil, false
	}
	last := 0
	if end.Len() > 0 {
		if last, err = strconv.Atoi(end.String()); err != nil {
			return nil, false
		}
	}
	if last == 0 {
		last = first
	}

	if first < 1 || last < 1 || first > totalPages || last > totalPages {
		return nil, false
	}

	if last >= first {
		pages := make([]int, 0, last-first+1)
		for p := first; p <= last; p++ {
			pages = append(pages, p)
		}
		return pages, true
	}

	pages := make([]int, 0, first-last+1)
	for p := first; p >= last; p-- {
		pages = append(pages, p)
	}
	return pages, true
}
