package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/antchfx/htmlquery"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"golang.org/x/net/html"
)

// Attributes written onto live elements before a snapshot is taken. The value
// and checked mirrors carry DOM property state that is invisible in outerHTML.
const (
	RefAttr      = "data-fp-ref"
	ValueAttr    = "data-fp-value"
	CheckedAttr  = "data-fp-checked"
	SelectedAttr = "data-fp-selected"
)

// Document is an immutable parsed snapshot of the page.
type Document struct {
	Root       *html.Node
	Generation uint64
	URL        string
}

// Parse reads an HTML document and tags it with a generation.
func Parse(r io.Reader, generation uint64) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html snapshot: %w", err)
	}
	return &Document{Root: root, Generation: generation}, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string, generation uint64) (*Document, error) {
	return Parse(strings.NewReader(markup), generation)
}

// Ref returns the generation-scoped handle for n.
func (d *Document) Ref(n *html.Node) schemas.ElementRef {
	if n == nil {
		return schemas.ElementRef{}
	}
	if stamp := Attr(n, RefAttr); stamp != "" {
		return schemas.ElementRef{Generation: d.Generation, XPath: RefXPath(stamp)}
	}
	return schemas.ElementRef{Generation: d.Generation, XPath: GenerateUniqueXPath(n)}
}

// Render serializes the document back to markup.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StampTree writes generation stamps onto every element under root, replacing
// stamps from earlier generations. It returns the number of stamped elements.
func StampTree(root *html.Node, generation uint64) int {
	count := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			SetAttr(n, RefAttr, fmt.Sprintf("%d-%d", generation, count))
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return count
}

// Attr returns the named attribute, or "".
func Attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(n *html.Node, name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute in place.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// HasClass reports whether class is one of n's class tokens.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Tag returns the lowercase tag name of an element node.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Text returns the whitespace-normalized text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return NormalizeSpace(htmlquery.InnerText(n))
}

// OwnText returns only the direct text children of n.
func OwnText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return NormalizeSpace(b.String())
}

// NormalizeSpace trims and collapses internal whitespace runs to one space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// IsChecked reads the checked state, preferring the live mirror.
func IsChecked(n *html.Node) bool {
	if HasAttr(n, CheckedAttr) {
		return Attr(n, CheckedAttr) == "true"
	}
	return HasAttr(n, "checked")
}

// IsSelected reads an option's selected state, preferring the live mirror.
func IsSelected(n *html.Node) bool {
	if HasAttr(n, SelectedAttr) {
		return Attr(n, SelectedAttr) == "true"
	}
	return HasAttr(n, "selected")
}

// Value reads a form control value, preferring the live mirror.
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	if HasAttr(n, ValueAttr) {
		return Attr(n, ValueAttr)
	}
	switch Tag(n) {
	case "textarea":
		return htmlquery.InnerText(n)
	case "select":
		for _, opt := range descendants(n, "option") {
			if IsSelected(opt) {
				if v, ok := attrOK(opt, "value"); ok {
					return v
				}
				return Text(opt)
			}
		}
		return ""
	}
	return Attr(n, "value")
}

func attrOK(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func descendants(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			if Tag(ch) == tag {
				out = append(out, ch)
			}
			walk(ch)
		}
	}
	walk(n)
	return out
}

// Descendants returns all element descendants of n with the given tag.
func Descendants(n *html.Node, tag string) []*html.Node {
	return descendants(n, strings.ToLower(tag))
}

// Contains reports whether child is inside (or equal to) ancestor.
func Contains(ancestor, child *html.Node) bool {
	for n := child; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
