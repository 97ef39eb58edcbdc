package answer

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
	codeRe   = regexp.MustCompile("`+")

	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	urlRe    = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)
	numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

	listSplitRe = regexp.MustCompile(`[,;\n]+`)
)

// Clean strips markdown emphasis, code ticks and wrapping quotes.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = codeRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// Process turns a raw model reply into an answer shaped for q.
func Process(q schemas.Question, raw string) schemas.Answer {
	text := Clean(raw)
	ans := schemas.Answer{Text: text, Source: schemas.SourceRemote}

	switch q.Type {
	case schemas.SingleChoice, schemas.Dropdown, schemas.Scale:
		if opt, ok := matchOne(q.Options, text); ok {
			ans.Text = opt
		}
	case schemas.MultiChoice:
		ans.Choices = matchMany(q.Options, text)
		ans.Text = strings.Join(ans.Choices, ", ")
	case schemas.Email:
		if m := emailRe.FindString(text); m != "" {
			ans.Text = m
		}
	case schemas.URL:
		if m := urlRe.FindString(text); m != "" {
			ans.Text = strings.TrimRight(m, ".,;")
		}
	case schemas.Number:
		if m := numberRe.FindString(text); m != "" {
			ans.Text = m
		}
	}
	return ans
}

// matchOne prefers an exact case-insensitive match, then containment in
// either direction.
func matchOne(options []string, text string) (string, bool) {
	t := strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), ".!")
	if t == "" {
		return "", false
	}
	for _, o := range options {
		if strings.ToLower(o) == t {
			return o, true
		}
	}
	for _, o := range options {
		lo := strings.ToLower(o)
		if lo != "" && (strings.Contains(t, lo) || strings.Contains(lo, t)) {
			return o, true
		}
	}
	return "", false
}

// matchMany returns every option named in text. When none is named the
// reply is treated as a list and each member is resolved on its own.
func matchMany(options []string, text string) []string {
	t := strings.ToLower(text)
	var out []string
	for _, o := range options {
		if lo := strings.ToLower(o); lo != "" && strings.Contains(t, lo) {
			out = append(out, o)
		}
	}
	if len(out) > 0 {
		return out
	}

	seen := map[string]bool{}
	var raw []string
	for _, part := range listSplitRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		raw = append(raw, part)
		if opt, ok := matchOne(options, part); ok && !seen[opt] {
			seen[opt] = true
			out = append(out, opt)
		}
	}
	if len(out) > 0 {
		return out
	}
	return raw
}
