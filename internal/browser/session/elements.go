// internal/browser/session/elements.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
)

// eval runs one of the element scripts and decodes its result into out.
func (s *Session) eval(ctx context.Context, out interface{}, fn string, args ...interface{}) error {
	script, err := invoke(fn, args...)
	if err != nil {
		return err
	}
	return s.RunActions(ctx, chromedp.Evaluate(script, out))
}

// elementOp runs a script that reports whether the element was found.
func (s *Session) elementOp(ctx context.Context, op, xpath, fn string, args ...interface{}) error {
	var found bool
	if err := s.eval(ctx, &found, fn, append([]interface{}{xpath}, args...)...); err != nil {
		return fmt.Errorf("%s %s: %w", op, xpath, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, xpath)
	}
	return nil
}

// Query returns one ref XPath per element matching xpath.
func (s *Session) Query(ctx context.Context, xpath string) ([]string, error) {
	var stamps []string
	if err := s.eval(ctx, &stamps, queryFn, xpath); err != nil {
		return nil, fmt.Errorf("query %s: %w", xpath, err)
	}
	refs := make([]string, len(stamps))
	for i, st := range stamps {
		refs[i] = dom.RefXPath(st)
	}
	return refs, nil
}

// State reads an element back from the live page. A missing element is
// reported as Found=false.
func (s *Session) State(ctx context.Context, xpath string) (schemas.ElementState, error) {
	var st schemas.ElementState
	if err := s.eval(ctx, &st, stateFn, xpath); err != nil {
		return schemas.ElementState{}, fmt.Errorf("state %s: %w", xpath, err)
	}
	return st, nil
}

// Click calls element.click(), which activates the element without pointer input.
func (s *Session) Click(ctx context.Context, xpath string) error {
	return s.elementOp(ctx, "click", xpath, clickFn)
}

// Focus scrolls the element into view and focuses it.
func (s *Session) Focus(ctx context.Context, xpath string) error {
	return s.elementOp(ctx, "focus", xpath, focusFn)
}

// SetProperty assigns a DOM property, such as value or checked.
func (s *Session) SetProperty(ctx context.Context, xpath, name string, value interface{}) error {
	return s.elementOp(ctx, "set property", xpath, setPropertyFn, name, value)
}

// SetAttribute writes an attribute.
func (s *Session) SetAttribute(ctx context.Context, xpath, name, value string) error {
	return s.elementOp(ctx, "set attribute", xpath, setAttributeFn, name, value)
}

// DispatchEvents fires synthetic events on the element in order.
func (s *Session) DispatchEvents(ctx context.Context, xpath string, events ...string) error {
	if len(events) == 0 {
		return nil
	}
	return s.elementOp(ctx, "dispatch", xpath, dispatchFn, events)
}

// The humanoid executor methods delegate to the CDP executor so a Session can
// be handed to the filler as a single page.

func (s *Session) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	return s.exec.DispatchMouseEvent(ctx, data)
}

func (s *Session) SendKeys(ctx context.Context, keys string) error {
	return s.exec.SendKeys(ctx, keys)
}

func (s *Session) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	return s.exec.DispatchStructuredKey(ctx, data)
}

func (s *Session) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	return s.exec.GetElementGeometry(ctx, selector)
}
