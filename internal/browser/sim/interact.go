package sim

import (
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"golang.org/x/net/html"
)

// maxActivationDepth bounds label and wrapper redirection.
const maxActivationDepth = 4

// activateLocked applies click semantics to n.
func (p *Page) activateLocked(n *html.Node, depth int) {
	if n == nil || depth > maxActivationDepth || isInert(n) {
		return
	}

	switch inputType(n) {
	case "radio":
		p.setCheckedLocked(n, true)
		return
	case "checkbox":
		p.setCheckedLocked(n, !dom.IsChecked(n))
		return
	}
	if inputType(n) != "" || dom.Tag(n) == "textarea" {
		p.focused = n
		p.selectAll = false
		return
	}

	switch dom.Tag(n) {
	case "label":
		if target := p.labelTargetLocked(n); target != nil {
			p.activateLocked(target, depth+1)
			return
		}
		if dom.HasAttr(n, "for") {
			return
		}
	case "option":
		selectOption(n)
		return
	}

	switch roleOf(n) {
	case "radio":
		p.setAriaRadioLocked(n)
		return
	case "checkbox":
		if dom.Attr(n, "aria-checked") == "true" {
			dom.SetAttr(n, "aria-checked", "false")
		} else {
			dom.SetAttr(n, "aria-checked", "true")
		}
		return
	case "option":
		p.selectAriaOptionLocked(n)
		return
	case "listbox", "combobox":
		dom.SetAttr(n, "aria-expanded", "true")
		return
	}

	// A wrapper with exactly one choice control forwards the click to it.
	if choices := choiceDescendants(n); len(choices) == 1 {
		p.activateLocked(choices[0], depth+1)
		return
	}
	// Clicks on decoration inside a label or a role control bubble up to it.
	for a := n.Parent; a != nil; a = a.Parent {
		if dom.Tag(a) == "label" {
			p.activateLocked(a, depth+1)
			return
		}
		switch roleOf(a) {
		case "radio", "checkbox", "option":
			p.activateLocked(a, depth+1)
			return
		}
	}
}

func (p *Page) labelTargetLocked(label *html.Node) *html.Node {
	if id := dom.Attr(label, "for"); id != "" {
		if nodes, err := dom.QueryString(p.root, "//*[@id='"+id+"']"); err == nil && len(nodes) > 0 {
			return nodes[0]
		}
		return nil
	}
	for _, tag := range []string{"input", "textarea", "select"} {
		if inner := dom.Descendants(label, tag); len(inner) > 0 {
			return inner[0]
		}
	}
	return nil
}

func (p *Page) setCheckedLocked(n *html.Node, on bool) {
	if !on {
		dom.RemoveAttr(n, "checked")
		return
	}
	if inputType(n) == "radio" {
		if name := dom.Attr(n, "name"); name != "" {
			if group, err := dom.QueryString(p.root, "//input[@type='radio'][@name='"+name+"']"); err == nil {
				for _, r := range group {
					dom.RemoveAttr(r, "checked")
				}
			}
		}
	}
	dom.SetAttr(n, "checked", "")
}

func (p *Page) setAriaRadioLocked(n *html.Node) {
	group := n.Parent
	for group != nil && roleOf(group) != "radiogroup" {
		group = group.Parent
	}
	if group == nil {
		group = n.Parent
	}
	if group != nil {
		for _, r := range roleDescendants(group, "radio") {
			dom.SetAttr(r, "aria-checked", "false")
		}
	}
	dom.SetAttr(n, "aria-checked", "true")
}

func (p *Page) selectAriaOptionLocked(n *html.Node) {
	box := n.Parent
	for box != nil && roleOf(box) != "listbox" {
		box = box.Parent
	}
	scope := box
	if scope == nil {
		scope = n.Parent
	}
	for _, o := range roleDescendants(scope, "option") {
		dom.SetAttr(o, "aria-selected", "false")
	}
	dom.SetAttr(n, "aria-selected", "true")
	if box != nil {
		dom.SetAttr(box, "aria-expanded", "false")
	}
	// Collapse any other open listbox, as a popup closing would.
	if open, err := dom.QueryString(p.root, "//*[@aria-expanded='true']"); err == nil {
		for _, o := range open {
			dom.SetAttr(o, "aria-expanded", "false")
		}
	}
}

func roleDescendants(n *html.Node, role string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type == html.ElementNode && roleOf(ch) == role {
				out = append(out, ch)
			}
			walk(ch)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func choiceDescendants(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch {
			case inputType(ch) == "radio" || inputType(ch) == "checkbox":
				out = append(out, ch)
				continue
			case roleOf(ch) == "radio" || roleOf(ch) == "checkbox":
				out = append(out, ch)
				continue
			}
			walk(ch)
		}
	}
	walk(n)
	return out
}
