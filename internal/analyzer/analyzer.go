// Package analyzer turns a parsed page snapshot into a structured form model.
//
// Every lookup is an ordered waterfall of XPath expressions held in Selectors.
// The first expression that yields a usable result wins; nothing is merged
// across steps. The analyzer only reads the snapshot it is given, so calling
// Analyze twice on the same document yields the same questions.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/antchfx/xpath"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Analyzer extracts questions from page snapshots.
type Analyzer struct {
	sel            *compiled
	minLabelLength int
	logger         *zap.Logger
	now            func() time.Time
}

// New compiles the configured selector waterfalls.
func New(cfg config.AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	return NewWithSelectors(DefaultSelectors().WithOverrides(cfg.Selectors), cfg.MinLabelLength, logger)
}

// NewWithSelectors builds an analyzer from an explicit selector set.
func NewWithSelectors(s Selectors, minLabelLength int, logger *zap.Logger) (*Analyzer, error) {
	c, err := s.compile()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		sel:            c,
		minLabelLength: minLabelLength,
		logger:         logger.Named("analyzer"),
		now:            time.Now,
	}, nil
}

// candidate is a container together with the text already resolved for it.
type candidate struct {
	node *html.Node
	text string
}

// Analyze builds a FormSnapshot from doc. A document without questions is not
// an error; the snapshot simply has none.
func (a *Analyzer) Analyze(ctx context.Context, doc *dom.Document) (snap *schemas.FormSnapshot, err error) {
	if doc == nil || doc.Root == nil {
		return nil, &AnalysisError{Op: "snapshot", Err: fmt.Errorf("empty document")}
	}
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = &AnalysisError{Op: "traverse", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	snap = &schemas.FormSnapshot{
		URL:        doc.URL,
		Generation: doc.Generation,
		CapturedAt: a.now(),
		Questions:  []schemas.Question{},
	}
	if snap.Title, err = a.firstText(doc.Root, a.sel.title); err != nil {
		return nil, &AnalysisError{Op: "title", Err: err}
	}
	if snap.Description, err = a.firstText(doc.Root, a.sel.description); err != nil {
		return nil, &AnalysisError{Op: "description", Err: err}
	}

	containers, strategy, err := a.findContainers(ctx, doc.Root)
	if err != nil {
		return nil, err
	}
	if len(containers) == 0 {
		containers, err = a.fallbackContainers(doc.Root)
		if err != nil {
			return nil, err
		}
		snap.Degraded = len(containers) > 0
		strategy = "fallback"
	}

	for _, c := range containers {
		if err := ctx.Err(); err != nil {
			return nil, &AnalysisError{Op: "extract", Err: err}
		}
		q, ok, err := a.extractQuestion(doc, c)
		if err != nil {
			return nil, &AnalysisError{Op: "extract", Err: err}
		}
		if !ok {
			continue
		}
		q.Index = len(snap.Questions)
		snap.Questions = append(snap.Questions, q)
	}

	a.logger.Debug("Form analyzed.",
		zap.String("strategy", strategy),
		zap.Bool("degraded", snap.Degraded),
		zap.Int("containers", len(containers)),
		zap.Int("questions", len(snap.Questions)),
		zap.Uint64("generation", doc.Generation))
	return snap, nil
}

// findContainers runs the strategy waterfall and stops at the first strategy
// with at least one valid container.
func (a *Analyzer) findContainers(ctx context.Context, root *html.Node) ([]candidate, string, error) {
	for _, s := range a.sel.containers {
		if err := ctx.Err(); err != nil {
			return nil, "", &AnalysisError{Op: "containers", Err: err}
		}
		nodes, err := dom.QueryAll(root, s.expr)
		if err != nil {
			return nil, "", &AnalysisError{Op: "containers", Err: err}
		}
		var valid []candidate
		for _, n := range uniqueNodes(nodes) {
			ok, text, err := a.isValidContainer(n)
			if err != nil {
				return nil, "", &AnalysisError{Op: "validate", Err: err}
			}
			if ok {
				valid = append(valid, candidate{node: n, text: text})
			}
		}
		valid = innermost(valid)
		if len(valid) > 0 {
			return valid, s.Name, nil
		}
	}
	return nil, "", nil
}

// fallbackContainers uses the first broad selector that matches anything,
// without the validity predicate.
func (a *Analyzer) fallbackContainers(root *html.Node) ([]candidate, error) {
	for _, e := range a.sel.fallback {
		nodes, err := dom.QueryAll(root, e)
		if err != nil {
			return nil, &AnalysisError{Op: "fallback", Err: err}
		}
		nodes = uniqueNodes(nodes)
		if len(nodes) == 0 {
			continue
		}
		out := make([]candidate, len(nodes))
		for i, n := range nodes {
			out[i] = candidate{node: n}
		}
		return out, nil
	}
	return nil, nil
}

func (a *Analyzer) isValidContainer(n *html.Node) (bool, string, error) {
	text, err := a.labelText(n)
	if err != nil || text == "" {
		return false, "", err
	}
	hit, err := anyMatch(n, a.sel.inputBearing)
	if err != nil {
		return false, "", err
	}
	return hit, text, nil
}

func (a *Analyzer) extractQuestion(doc *dom.Document, c candidate) (schemas.Question, bool, error) {
	text := c.text
	if text == "" {
		var err error
		if text, err = a.labelText(c.node); err != nil {
			return schemas.Question{}, false, err
		}
	}
	if text == "" {
		return schemas.Question{}, false, nil
	}

	typ, target, err := a.classify(c.node)
	if err != nil {
		return schemas.Question{}, false, err
	}
	// Grids are matched only so they are not mistaken for a single choice.
	if typ == schemas.Grid {
		a.logger.Debug("Skipping grid question.", zap.String("text", text))
		return schemas.Question{}, false, nil
	}
	required, err := a.isRequired(c.node)
	if err != nil {
		return schemas.Question{}, false, err
	}

	var options []string
	if typ.IsChoice() {
		if options, err = a.extractOptions(doc.Root, c.node, typ); err != nil {
			return schemas.Question{}, false, err
		}
	}

	// Choice widgets are often ARIA-only, so a missing <input> is not disqualifying.
	if target == nil && len(options) == 0 && !typ.IsChoice() {
		return schemas.Question{}, false, nil
	}

	answered, err := a.isAnswered(c.node, typ, target)
	if err != nil {
		return schemas.Question{}, false, err
	}

	q := schemas.Question{
		Text:      text,
		Type:      typ,
		Required:  required,
		Options:   options,
		Answered:  answered,
		Container: doc.Ref(c.node),
	}
	if target != nil {
		q.Target = doc.Ref(target)
	}
	return q, true, nil
}

// labelText returns the first label candidate that looks like question text.
func (a *Analyzer) labelText(container *html.Node) (string, error) {
	for _, e := range a.sel.label {
		nodes, err := dom.QueryAll(container, e)
		if err != nil {
			return "", err
		}
		for _, n := range nodes {
			if t := cleanLabel(dom.Text(n)); a.plausibleLabel(t) {
				return t, nil
			}
		}
	}
	return "", nil
}

func (a *Analyzer) plausibleLabel(t string) bool {
	if len([]rune(t)) <= a.minLabelLength {
		return false
	}
	numeric := true
	for _, r := range t {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			numeric = false
			break
		}
	}
	return !numeric
}

// cleanLabel drops the trailing required marker that forms render inside the title.
func cleanLabel(t string) string {
	t = dom.NormalizeSpace(t)
	for strings.HasSuffix(t, "*") {
		t = strings.TrimSpace(strings.TrimSuffix(t, "*"))
	}
	return t
}

func (a *Analyzer) isRequired(container *html.Node) (bool, error) {
	return anyMatch(container, a.sel.required)
}

// classify walks the type waterfall and returns the first matching type and
// the control the filler should act on. Unmatched containers are short_text.
func (a *Analyzer) classify(container *html.Node) (schemas.QuestionType, *html.Node, error) {
	for _, r := range a.sel.types {
		hit, err := anyMatch(container, r.match)
		if err != nil {
			return "", nil, err
		}
		if !hit {
			continue
		}
		excluded, err := anyMatch(container, r.exclude)
		if err != nil {
			return "", nil, err
		}
		if excluded {
			continue
		}
		target, err := firstNode(container, r.target)
		if err != nil {
			return "", nil, err
		}
		return r.typ, target, nil
	}
	return schemas.ShortText, nil, nil
}

func (a *Analyzer) firstText(root *html.Node, list []*xpath.Expr) (string, error) {
	for _, e := range list {
		nodes, err := dom.QueryAll(root, e)
		if err != nil {
			return "", err
		}
		for _, n := range nodes {
			if t := dom.Text(n); t != "" {
				return t, nil
			}
		}
	}
	return "", nil
}

func anyMatch(n *html.Node, list []*xpath.Expr) (bool, error) {
	for _, e := range list {
		hit, err := dom.QueryOne(n, e)
		if err != nil {
			return false, err
		}
		if hit != nil {
			return true, nil
		}
	}
	return false, nil
}

func firstNode(n *html.Node, list []*xpath.Expr) (*html.Node, error) {
	for _, e := range list {
		hit, err := dom.QueryOne(n, e)
		if err != nil || hit != nil {
			return hit, err
		}
	}
	return nil, nil
}

func uniqueNodes(nodes []*html.Node) []*html.Node {
	seen := make(map[*html.Node]struct{}, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		if n == nil || n.Type != html.ElementNode {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// innermost drops any container that encloses another one from the same list.
func innermost(list []candidate) []candidate {
	out := list[:0:0]
	for i, c := range list {
		outer := false
		for j, o := range list {
			if i != j && o.node != c.node && dom.Contains(c.node, o.node) {
				outer = true
				break
			}
		}
		if !outer {
			out = append(out, c)
		}
	}
	return out
}
