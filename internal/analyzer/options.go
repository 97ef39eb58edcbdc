package analyzer

import (
	"strings"

	"github.com/antchfx/xpath"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"golang.org/x/net/html"
)

// extractOptions returns the de-duplicated option labels of a choice question.
// The first option-node expression that yields any text wins.
func (a *Analyzer) extractOptions(root, container *html.Node, typ schemas.QuestionType) ([]string, error) {
	list := a.sel.choiceOptions
	if typ == schemas.Dropdown {
		list = a.sel.listOptions
	}
	for _, e := range list {
		nodes, err := dom.QueryAll(container, e)
		if err != nil {
			return nil, err
		}
		var opts []string
		seen := make(map[string]struct{})
		for _, n := range nodes {
			if a.isPlaceholder(n) {
				continue
			}
			t, err := a.optionText(root, n)
			if err != nil {
				return nil, err
			}
			if t == "" || a.placeholderText(t) {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			opts = append(opts, t)
		}
		if len(opts) > 0 {
			return opts, nil
		}
	}
	return nil, nil
}

// optionText applies the text strategies in order: nested label span, own
// text, data-value, aria-label, then the labels associated with a bare input.
func (a *Analyzer) optionText(root, n *html.Node) (string, error) {
	if a.sel.optionLabel != nil {
		nested, err := dom.QueryAll(n, a.sel.optionLabel)
		if err != nil {
			return "", err
		}
		for _, s := range nested {
			if t := dom.Text(s); t != "" {
				return t, nil
			}
		}
	}
	if t := dom.OwnText(n); t != "" {
		return t, nil
	}
	if t := dom.NormalizeSpace(dom.Attr(n, "data-value")); t != "" {
		return t, nil
	}
	if t := dom.NormalizeSpace(dom.Attr(n, "aria-label")); t != "" {
		return t, nil
	}
	if dom.Tag(n) == "input" {
		if id := dom.Attr(n, "id"); id != "" && !strings.ContainsRune(id, '\'') {
			labels, err := dom.QueryString(root, "//label[@for='"+id+"']")
			if err != nil {
				return "", err
			}
			for _, l := range labels {
				if t := dom.Text(l); t != "" {
					return t, nil
				}
			}
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if dom.Tag(p) == "label" {
				if t := dom.Text(p); t != "" {
					return t, nil
				}
				break
			}
		}
		return dom.NormalizeSpace(dom.Attr(n, "value")), nil
	}
	return dom.Text(n), nil
}

func (a *Analyzer) isPlaceholder(n *html.Node) bool {
	if dom.HasClass(n, "isPlaceholder") {
		return true
	}
	if dom.Tag(n) == "option" && dom.HasAttr(n, "value") && strings.TrimSpace(dom.Attr(n, "value")) == "" {
		return true
	}
	return strings.EqualFold(dom.Attr(n, "role"), "option") && dom.HasAttr(n, "data-value") && dom.Attr(n, "data-value") == ""
}

func (a *Analyzer) placeholderText(t string) bool {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, p := range a.sel.placeholders {
		if t == p {
			return true
		}
	}
	return false
}

// isAnswered inspects the stamped live state of the container.
func (a *Analyzer) isAnswered(container *html.Node, typ schemas.QuestionType, target *html.Node) (bool, error) {
	switch typ {
	case schemas.SingleChoice, schemas.MultiChoice, schemas.Scale, schemas.Grid:
		return anyNode(container, checkedExpr, func(n *html.Node) bool {
			if dom.Tag(n) == "input" {
				return dom.IsChecked(n)
			}
			return dom.Attr(n, "aria-checked") == "true"
		})
	case schemas.Dropdown:
		if sel := dom.Descendants(container, "select"); len(sel) > 0 {
			return dom.Value(sel[0]) != "", nil
		}
		return anyNode(container, ariaSelectedExpr, func(n *html.Node) bool {
			return !a.isPlaceholder(n) && dom.Attr(n, "aria-selected") == "true"
		})
	}
	if target == nil {
		return false, nil
	}
	if dom.Value(target) != "" {
		return true, nil
	}
	// Split date and time widgets hold their value across several inputs.
	if typ == schemas.Date || typ == schemas.Time {
		for _, in := range dom.Descendants(container, "input") {
			if dom.Value(in) != "" {
				return true, nil
			}
		}
	}
	return false, nil
}

var (
	checkedExpr      = dom.MustCompile(".//input[@type='radio' or @type='checkbox'] | .//*[@role='radio' or @role='checkbox']")
	ariaSelectedExpr = dom.MustCompile(".//*[@role='option']")
)

func anyNode(n *html.Node, e *xpath.Expr, pred func(*html.Node) bool) (bool, error) {
	nodes, err := dom.QueryAll(n, e)
	if err != nil {
		return false, err
	}
	for _, c := range nodes {
		if pred(c) {
			return true, nil
		}
	}
	return false, nil
}
