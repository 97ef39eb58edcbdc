package sim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"golang.org/x/net/html"
)

// Sleep records d and, when configured, blocks for it.
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.sleeps = append(p.sleeps, d)
	real := p.realSleep
	p.mu.Unlock()
	if !real || d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetElementGeometry lays elements out in document order, one row each.
// Hidden elements report zero size.
func (p *Page) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(selector)
	if err != nil {
		return nil, err
	}
	idx := p.indexOfLocked(n)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	geo := &schemas.ElementGeometry{TagName: strings.ToUpper(dom.Tag(n)), Type: dom.Attr(n, "type")}
	if isHidden(n) {
		geo.Vertices = make([]float64, 8)
		return geo, nil
	}
	top := float64(idx) * rowHeight
	geo.Vertices = []float64{0, top, boxWidth, top, boxWidth, top + boxHeight, 0, top + boxHeight}
	geo.Width = int64(boxWidth)
	geo.Height = int64(boxHeight)
	return geo, nil
}

// DispatchMouseEvent activates the element under the pointer on a release
// that follows a press on the same element.
func (p *Page) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	if err := ctx.Err(); err != nil && ctx != context.Background() {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch data.Type {
	case schemas.MousePress:
		p.pressed = p.hitTestLocked(data.X, data.Y)
	case schemas.MouseRelease:
		target := p.hitTestLocked(data.X, data.Y)
		if target != nil && target == p.pressed {
			p.activateLocked(target, 0)
		}
		p.pressed = nil
	}
	return nil
}

// SendKeys appends text to the focused control.
func (p *Page) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.focused
	if n == nil {
		return fmt.Errorf("sim: no focused element")
	}
	if dom.HasAttr(n, DropKeysAttr) || isInert(n) {
		return nil
	}
	cur := dom.Value(n)
	if p.selectAll {
		cur = ""
		p.selectAll = false
	}
	setValue(n, cur+keys)
	return nil
}

// DispatchStructuredKey supports ctrl+a, Backspace, Escape and Tab.
func (p *Page) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.EqualFold(data.Key, "a") && data.Modifiers&(schemas.ModCtrl|schemas.ModMeta) != 0:
		p.selectAll = true
	case data.Key == "Backspace":
		if p.focused == nil || dom.HasAttr(p.focused, DropKeysAttr) {
			return nil
		}
		if p.selectAll {
			setValue(p.focused, "")
			p.selectAll = false
			return nil
		}
		r := []rune(dom.Value(p.focused))
		if len(r) > 0 {
			setValue(p.focused, string(r[:len(r)-1]))
		}
	case data.Key == "Escape":
		if open, err := dom.QueryString(p.root, "//*[@aria-expanded='true']"); err == nil {
			for _, o := range open {
				dom.SetAttr(o, "aria-expanded", "false")
			}
		}
	case data.Key == "Tab":
		p.focused = nil
		p.selectAll = false
	}
	return nil
}

func (p *Page) indexOfLocked(target *html.Node) int {
	idx, found := 0, -1
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found >= 0 {
			return
		}
		if n.Type == html.ElementNode {
			if n == target {
				found = idx
				return
			}
			idx++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	return found
}

func (p *Page) hitTestLocked(x, y float64) *html.Node {
	if x < 0 || x > boxWidth || y < 0 {
		return nil
	}
	row := int(y / rowHeight)
	if y-float64(row)*rowHeight > boxHeight {
		return nil
	}
	idx := 0
	var hit *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if hit != nil {
			return
		}
		if n.Type == html.ElementNode {
			if idx == row {
				hit = n
				return
			}
			idx++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	if hit != nil && isHidden(hit) {
		return nil
	}
	return hit
}

func isHidden(n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if dom.HasAttr(c, "hidden") {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(dom.Attr(c, "style")), " ", "")
		if strings.Contains(style, "display:none") {
			return true
		}
		if inputType(c) == "hidden" {
			return true
		}
	}
	return false
}
