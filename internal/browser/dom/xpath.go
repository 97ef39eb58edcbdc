// browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// GenerateUniqueXPath generates a positional XPath for a node, anchored on the
// closest ancestor id when there is one. Used for documents that carry no
// generation stamps, such as local files.
func GenerateUniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}
		if id := htmlquery.SelectAttr(n, "id"); id != "" && !strings.ContainsRune(id, '\'') {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	out := strings.Join(path, "/")
	if !strings.HasPrefix(out, "//*[@id=") {
		out = "/" + out
	}
	return out
}

// RefXPath returns the XPath that selects the element carrying stamp.
func RefXPath(stamp string) string {
	return fmt.Sprintf("//*[@%s='%s']", RefAttr, stamp)
}

// Compile compiles an XPath expression, wrapping the parser error.
func Compile(expr string) (*xpath.Expr, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return e, nil
}

// MustCompile is Compile for package-level tables of known-good expressions.
func MustCompile(expr string) *xpath.Expr {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// QueryAll evaluates a compiled expression relative to top. Evaluation panics
// inside the xpath engine are converted to errors.
func QueryAll(top *html.Node, expr *xpath.Expr) (nodes []*html.Node, err error) {
	if top == nil || expr == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = fmt.Errorf("xpath evaluation failed for %q: %v", expr.String(), r)
		}
	}()
	return htmlquery.QuerySelectorAll(top, expr), nil
}

// QueryOne returns the first match of expr under top, or nil.
func QueryOne(top *html.Node, expr *xpath.Expr) (*html.Node, error) {
	nodes, err := QueryAll(top, expr)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// QueryString compiles and evaluates expr in one step.
func QueryString(top *html.Node, expr string) ([]*html.Node, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return QueryAll(top, e)
}

// ClassContains builds the XPath 1.0 predicate body that matches a whole class token.
func ClassContains(class string) string {
	return fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", class)
}
