package filler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
)

// MatchKind records how an answer was mapped onto an option.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchContains
	MatchFirst
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchContains:
		return "contains"
	case MatchFirst:
		return "first"
	}
	return "none"
}

func normalize(s string) string {
	return strings.ToLower(dom.NormalizeSpace(s))
}

// findOption maps answer onto labels: exact case-insensitive match first, then
// containment in either direction. It returns -1 when neither applies.
func findOption(labels []string, answer string) (int, MatchKind) {
	a := normalize(answer)
	if a == "" {
		return -1, MatchNone
	}
	for i, l := range labels {
		if normalize(l) == a {
			return i, MatchExact
		}
	}
	for i, l := range labels {
		n := normalize(l)
		if n == "" {
			continue
		}
		if strings.Contains(n, a) || strings.Contains(a, n) {
			return i, MatchContains
		}
	}
	return -1, MatchNone
}

// chooseOption is findOption with the first option as the last resort, so a
// choice question is never left empty.
func chooseOption(labels []string, answer string) (int, MatchKind) {
	if i, k := findOption(labels, answer); i >= 0 {
		return i, k
	}
	if len(labels) == 0 {
		return -1, MatchNone
	}
	return 0, MatchFirst
}

// chooseMany resolves every answer value independently and falls back to the
// first option when none resolves. Indices are unique and in answer order.
func chooseMany(labels []string, answers []string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, a := range answers {
		if i, _ := findOption(labels, a); i >= 0 && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	if len(out) == 0 && len(labels) > 0 {
		out = []int{0}
	}
	return out
}

var integerRe = regexp.MustCompile(`-?\d+`)

// parseScale extracts the first integer in the answer.
func parseScale(answer string) (int, bool) {
	m := integerRe.FindString(answer)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}
