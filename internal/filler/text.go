package filler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
)

// textTarget returns the question's target, or the first text control in its container.
func (f *Filler) textTarget(ctx context.Context, q schemas.Question) (string, error) {
	if !q.Target.IsZero() {
		return q.Target.XPath, nil
	}
	ref, err := f.firstRef(ctx, q.Container.XPath, f.sel.TextTargets)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", ErrNoTarget
	}
	return ref, nil
}

func sameText(a, b string) bool {
	return dom.NormalizeSpace(a) == dom.NormalizeSpace(b)
}

// textPlan types the answer like a person and falls back to direct assignment.
func (f *Filler) textPlan(q schemas.Question, answer string) []Strategy {
	var target string
	verify := func(ctx context.Context) bool {
		return target != "" && sameText(f.state(ctx, target).Value, answer)
	}
	resolve := func(ctx context.Context) error {
		ref, err := f.textTarget(ctx, q)
		if err != nil {
			return err
		}
		target = ref
		return nil
	}

	return []Strategy{
		{
			Name: "type",
			Apply: func(ctx context.Context) error {
				if err := resolve(ctx); err != nil {
					return err
				}
				if err := f.page.Focus(ctx, target); err != nil {
					return fmt.Errorf("focus: %w", err)
				}
				if err := f.clear(ctx, target); err != nil {
					return err
				}
				delay := f.speed.TypingDelay()
				if err := f.human.Type(ctx, answer, &humanoid.TypeOptions{MeanDelay: delay, Jitter: delay / 2}); err != nil {
					return fmt.Errorf("type: %w", err)
				}
				f.dispatch(ctx, target, "change", "blur")

				// Some pages swallow synthetic keystrokes entirely.
				if strings.TrimSpace(f.state(ctx, target).Value) == "" {
					return f.assign(ctx, target, answer)
				}
				return nil
			},
			Verify: verify,
		},
		{
			Name: "assign",
			Apply: func(ctx context.Context) error {
				if err := resolve(ctx); err != nil {
					return err
				}
				return f.assign(ctx, target, answer)
			},
			Verify: verify,
		},
	}
}

// clear empties a focused control with select-all and delete, then resets the
// value directly in case the keystrokes were ignored.
func (f *Filler) clear(ctx context.Context, ref string) error {
	if err := f.human.Shortcut(ctx, "ctrl+a"); err != nil {
		return fmt.Errorf("select all: %w", err)
	}
	if err := f.human.PressKey(ctx, humanoid.KeyBackspace); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if f.state(ctx, ref).Value != "" {
		if err := f.page.SetProperty(ctx, ref, "value", ""); err != nil {
			return fmt.Errorf("reset value: %w", err)
		}
		f.dispatch(ctx, ref, "input")
	}
	return nil
}

func (f *Filler) assign(ctx context.Context, ref, value string) error {
	if err := f.page.SetProperty(ctx, ref, "value", value); err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	f.dispatch(ctx, ref, "input", "change")
	return nil
}

// -- date and time --

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2/1/2006",
	"02-01-2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"15.04",
}

// ParseDate returns the answer as a date in the first matching layout.
// DD/MM is tried before MM/DD.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseClock returns the answer as a time of day.
func ParseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type part struct {
	rels  []string
	value string
}

func (f *Filler) datePlan(q schemas.Question, answer string) ([]Strategy, error) {
	t, ok := ParseDate(answer)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnparseable, answer)
	}
	parts := []part{
		{f.sel.DateParts.First, t.Format("02")},
		{f.sel.DateParts.Second, t.Format("01")},
		{f.sel.DateParts.Third, t.Format("2006")},
	}
	return f.temporalPlan(q, t.Format("2006-01-02"), parts), nil
}

func (f *Filler) timePlan(q schemas.Question, answer string) ([]Strategy, error) {
	t, ok := ParseClock(answer)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnparseable, answer)
	}
	parts := []part{
		{f.sel.TimeParts.First, t.Format("15")},
		{f.sel.TimeParts.Second, t.Format("04")},
	}
	return f.temporalPlan(q, t.Format("15:04"), parts), nil
}

// temporalPlan assigns the canonical value to a single input, or fills a
// split widget part by part.
func (f *Filler) temporalPlan(q schemas.Question, canonical string, parts []part) []Strategy {
	var target string
	single := Strategy{
		Name: "assign-canonical",
		Apply: func(ctx context.Context) error {
			if err := f.splitWidget(ctx, q, parts, nil); err == nil {
				return errNotApplicable
			}
			ref, err := f.textTarget(ctx, q)
			if err != nil {
				return err
			}
			target = ref
			if err := f.page.Focus(ctx, ref); err != nil {
				return fmt.Errorf("focus: %w", err)
			}
			return f.assign(ctx, ref, canonical)
		},
		Verify: func(ctx context.Context) bool {
			return target != "" && f.state(ctx, target).Value == canonical
		},
	}

	var filled map[string]string
	split := Strategy{
		Name: "split-parts",
		Apply: func(ctx context.Context) error {
			filled = map[string]string{}
			return f.splitWidget(ctx, q, parts, filled)
		},
		Verify: func(ctx context.Context) bool {
			if len(filled) == 0 {
				return false
			}
			for ref, want := range filled {
				if f.state(ctx, ref).Value != want {
					return false
				}
			}
			return true
		},
	}
	return []Strategy{split, single}
}

// splitWidget fills each part that is present. With a nil sink it only
// checks whether the widget is split.
func (f *Filler) splitWidget(ctx context.Context, q schemas.Question, parts []part, sink map[string]string) error {
	found := 0
	for _, p := range parts {
		ref, err := f.firstRef(ctx, q.Container.XPath, p.rels)
		if err != nil {
			return err
		}
		if ref == "" {
			continue
		}
		found++
		if sink == nil {
			continue
		}
		if err := f.page.Focus(ctx, ref); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
		if err := f.assign(ctx, ref, p.value); err != nil {
			return err
		}
		sink[ref] = p.value
	}
	if found == 0 {
		return errNotApplicable
	}
	return nil
}
