// Package sim is an in-memory page that reproduces the click, keyboard and
// property semantics the filler relies on, over an x/net/html tree. It backs
// the offline simulate command and the package tests of the pipeline.
package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Attributes that alter simulated behaviour.
const (
	// InertAttr makes an element (and its subtree) ignore clicks and property writes.
	InertAttr = "data-sim-inert"
	// DropKeysAttr makes a text control ignore keystrokes but accept direct assignment.
	DropKeysAttr = "data-sim-drop-keys"
)

// ErrNotFound is returned when an XPath resolves to nothing.
var ErrNotFound = errors.New("sim: element not found")

// Geometry of the synthetic layout: every element in document order gets a
// row of rowHeight pixels, of which boxHeight are its hit box.
const (
	rowHeight = 30.0
	boxHeight = 20.0
	boxWidth  = 200.0
)

// Event is a recorded DOM event dispatch.
type Event struct {
	XPath string
	Name  string
}

// Page is a live, mutable in-memory document.
type Page struct {
	mu         sync.Mutex
	root       *html.Node
	url        string
	generation uint64
	querySeq   int
	focused    *html.Node
	selectAll  bool
	pressed    *html.Node
	events     []Event
	sleeps     []time.Duration
	realSleep  bool
	mutations  chan struct{}
	logger     *zap.Logger
}

// Option configures a Page.
type Option func(*Page)

// WithURL sets the URL reported in snapshots.
func WithURL(u string) Option { return func(p *Page) { p.url = u } }

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option { return func(p *Page) { p.logger = l.Named("sim") } }

// WithRealSleep makes Sleep block for the requested duration.
func WithRealSleep() Option { return func(p *Page) { p.realSleep = true } }

// New parses markup into a live page.
func New(markup string, opts ...Option) (*Page, error) {
	doc, err := dom.ParseString(markup, 0)
	if err != nil {
		return nil, err
	}
	p := &Page{
		root:      doc.Root,
		url:       "about:blank",
		mutations: make(chan struct{}, 16),
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Load reads an HTML file from disk into a live page.
func Load(path string, opts ...Option) (*Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: read %s: %w", path, err)
	}
	opts = append([]Option{WithURL("file://" + path)}, opts...)
	return New(string(b), opts...)
}

// Snapshot stamps the live tree with a new generation and returns a parsed copy.
func (p *Page) Snapshot(ctx context.Context) (*dom.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.generation++
	gen := p.generation
	dom.StampTree(p.root, gen)
	live := &dom.Document{Root: p.root, Generation: gen}
	markup, err := live.Render()
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sim: render: %w", err)
	}

	doc, err := dom.ParseString(markup, gen)
	if err != nil {
		return nil, err
	}
	doc.URL = p.url
	return doc, nil
}

// URL returns the page URL.
func (p *Page) URL() string { return p.url }

// Generation returns the last snapshot generation.
func (p *Page) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Mutations signals after every Mutate call.
func (p *Page) Mutations() <-chan struct{} { return p.mutations }

// Mutate applies fn to the live tree and emits a mutation notification.
func (p *Page) Mutate(fn func(root *html.Node)) {
	p.mu.Lock()
	fn(p.root)
	p.mu.Unlock()
	select {
	case p.mutations <- struct{}{}:
	default:
	}
}

// HTML renders the current live tree.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out, _ := (&dom.Document{Root: p.root}).Render()
	return out
}

// Events returns the recorded event dispatches.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Sleeps returns the durations passed to Sleep.
func (p *Page) Sleeps() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.sleeps...)
}

// -- element operations --

// Query resolves xpath and returns a stable ref XPath per match, stamping
// elements that were not present at the last snapshot.
func (p *Page) Query(ctx context.Context, xpath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := dom.QueryString(p.root, xpath)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		stamp := dom.Attr(n, dom.RefAttr)
		if stamp == "" {
			p.querySeq++
			stamp = fmt.Sprintf("%d-q%d", p.generation, p.querySeq)
			dom.SetAttr(n, dom.RefAttr, stamp)
		}
		out = append(out, dom.RefXPath(stamp))
	}
	return out, nil
}

// State reads the live state of the first element matching xpath.
func (p *Page) State(ctx context.Context, xpath string) (schemas.ElementState, error) {
	if err := ctx.Err(); err != nil {
		return schemas.ElementState{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if errors.Is(err, ErrNotFound) {
		return schemas.ElementState{Found: false}, nil
	}
	if err != nil {
		return schemas.ElementState{}, err
	}

	st := schemas.ElementState{
		Found:      true,
		TagName:    dom.Tag(n),
		Value:      dom.Value(n),
		Checked:    dom.IsChecked(n),
		Selected:   dom.IsSelected(n),
		Text:       dom.Text(n),
		Attributes: make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		st.Attributes[a.Key] = a.Val
	}
	if n.Parent != nil {
		st.ParentClass = dom.Attr(n.Parent, "class")
	}
	if st.TagName == "select" {
		for _, opt := range dom.Descendants(n, "option") {
			if dom.IsSelected(opt) {
				st.SelectedText = dom.Text(opt)
			}
		}
	}
	return st, nil
}

// Click activates the element as a synthetic element.click() would.
func (p *Page) Click(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if err != nil {
		return err
	}
	p.activateLocked(n, 0)
	return nil
}

// Focus moves keyboard focus to the element.
func (p *Page) Focus(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if err != nil {
		return err
	}
	p.focused = n
	p.selectAll = false
	return nil
}

// SetProperty assigns a DOM property. checked, selected and value are
// reflected into the tree; anything else is stored as an attribute.
func (p *Page) SetProperty(ctx context.Context, xpath, name string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if err != nil {
		return err
	}
	if isInert(n) {
		return nil
	}
	switch name {
	case "checked":
		on, _ := value.(bool)
		p.setCheckedLocked(n, on)
	case "selected":
		on, _ := value.(bool)
		if on {
			selectOption(n)
		} else {
			dom.RemoveAttr(n, "selected")
		}
	case "value":
		setValue(n, fmt.Sprint(value))
	default:
		dom.SetAttr(n, name, fmt.Sprint(value))
	}
	return nil
}

// SetAttribute writes an attribute.
func (p *Page) SetAttribute(ctx context.Context, xpath, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if err != nil {
		return err
	}
	if isInert(n) {
		return nil
	}
	dom.SetAttr(n, name, value)
	return nil
}

// DispatchEvents records synthetic events. Listeners are not simulated, but a
// dispatched click runs activation like a browser MouseEvent does, so a
// checkbox toggles.
func (p *Page) DispatchEvents(ctx context.Context, xpath string, events ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.resolveLocked(xpath)
	if err != nil {
		return err
	}
	for _, e := range events {
		p.events = append(p.events, Event{XPath: xpath, Name: e})
		if e == "click" {
			p.activateLocked(n, 0)
		}
	}
	return nil
}

func (p *Page) resolveLocked(xpath string) (*html.Node, error) {
	nodes, err := dom.QueryString(p.root, xpath)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, xpath)
}

// -- value helpers --

func setValue(n *html.Node, v string) {
	switch dom.Tag(n) {
	case "textarea":
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		if v != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		}
	case "select":
		for _, opt := range dom.Descendants(n, "option") {
			val, ok := optionValue(opt)
			if ok && val == v {
				selectOption(opt)
				return
			}
		}
	default:
		dom.SetAttr(n, "value", v)
	}
}

func optionValue(opt *html.Node) (string, bool) {
	if dom.HasAttr(opt, "value") {
		return dom.Attr(opt, "value"), true
	}
	return dom.Text(opt), true
}

func selectOption(opt *html.Node) {
	sel := opt.Parent
	for sel != nil && dom.Tag(sel) != "select" {
		sel = sel.Parent
	}
	if sel != nil {
		for _, o := range dom.Descendants(sel, "option") {
			dom.RemoveAttr(o, "selected")
		}
	}
	dom.SetAttr(opt, "selected", "")
}

func isInert(n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if dom.HasAttr(c, InertAttr) {
			return true
		}
	}
	return false
}

func roleOf(n *html.Node) string { return strings.ToLower(dom.Attr(n, "role")) }

func inputType(n *html.Node) string {
	if dom.Tag(n) != "input" {
		return ""
	}
	t := strings.ToLower(dom.Attr(n, "type"))
	if t == "" {
		return "text"
	}
	return t
}
