package filler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"go.uber.org/zap"
)

// liveOption is an option node on the page and its visible label.
type liveOption struct {
	ref   string
	label string
	state schemas.ElementState
}

// liveOptions resolves the option nodes under container via the first
// selector that finds any, reading each label back from the page.
func (f *Filler) liveOptions(ctx context.Context, container string, rels []string) ([]liveOption, error) {
	refs, err := f.firstRefs(ctx, container, rels)
	if err != nil {
		return nil, err
	}
	out := make([]liveOption, 0, len(refs))
	for _, ref := range refs {
		st := f.state(ctx, ref)
		if !st.Found || st.Attr("type") == "hidden" {
			continue
		}
		out = append(out, liveOption{ref: ref, label: f.optionLabel(ctx, ref, st), state: st})
	}
	return out, nil
}

// optionLabel mirrors the analyzer's option text waterfall on the live page.
func (f *Filler) optionLabel(ctx context.Context, ref string, st schemas.ElementState) string {
	for _, rel := range f.sel.OptionLabel {
		if nested, err := f.firstRef(ctx, ref, []string{rel}); err == nil && nested != "" {
			if t := dom.NormalizeSpace(f.state(ctx, nested).Text); t != "" {
				return t
			}
		}
	}
	if t := dom.NormalizeSpace(st.Text); t != "" {
		return t
	}
	for _, attr := range []string{"data-value", "aria-label"} {
		if t := dom.NormalizeSpace(st.Attr(attr)); t != "" {
			return t
		}
	}
	if st.TagName == "input" {
		if id := st.Attr("id"); id != "" && !strings.ContainsRune(id, '\'') {
			if t := dom.NormalizeSpace(f.state(ctx, "//label[@for='"+id+"']").Text); t != "" {
				return t
			}
		}
		if t := dom.NormalizeSpace(f.state(ctx, ref+"/ancestor::label[1]").Text); t != "" {
			return t
		}
	}
	return dom.NormalizeSpace(st.Value)
}

func labelsOf(opts []liveOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.label
	}
	return out
}

// isChecked accepts native checked state, aria-checked and the class markers
// custom widgets use.
func (f *Filler) isChecked(ctx context.Context, ref string) bool {
	st := f.state(ctx, ref)
	if !st.Found {
		return false
	}
	if st.Checked || st.Attr("aria-checked") == "true" || st.Attr("aria-selected") == "true" {
		return true
	}
	for _, c := range f.sel.CheckedClasses {
		if hasToken(st.Attr("class"), c) || hasToken(st.ParentClass, c) {
			return true
		}
	}
	return false
}

func hasToken(classes, c string) bool {
	for _, t := range strings.Fields(classes) {
		if t == c {
			return true
		}
	}
	return false
}

// selectCascade returns the selection strategies for one choice node, in the
// order native checked state, structural parent, label[for], pointer sequence.
func (f *Filler) selectCascade(resolve func(ctx context.Context) ([]string, error), verify func(ctx context.Context) bool) []Strategy {
	each := func(fn func(ctx context.Context, ref string) error) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			refs, err := resolve(ctx)
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				return ErrNoTarget
			}
			applied := false
			for _, ref := range refs {
				if f.isChecked(ctx, ref) {
					continue
				}
				err := fn(ctx, ref)
				if errors.Is(err, errNotApplicable) {
					continue
				}
				if err != nil {
					return err
				}
				applied = true
			}
			if !applied {
				// Everything was already selected, or nothing here could act.
				if verify(ctx) {
					return nil
				}
				return errNotApplicable
			}
			return nil
		}
	}

	return []Strategy{
		{
			Name: "native-checked",
			Apply: each(func(ctx context.Context, ref string) error {
				st := f.state(ctx, ref)
				if st.TagName != "input" {
					return errNotApplicable
				}
				if err := f.page.SetProperty(ctx, ref, "checked", true); err != nil {
					return err
				}
				// No synthetic click: it would run activation and toggle a checkbox back off.
				f.dispatch(ctx, ref, "input", "change")
				return nil
			}),
			Verify: verify,
		},
		{
			Name: "click-parent",
			Apply: each(func(ctx context.Context, ref string) error {
				parent, err := f.firstRef(ctx, ref, f.sel.ChoiceParent)
				if err != nil {
					return err
				}
				if parent == "" {
					return errNotApplicable
				}
				return f.page.Click(ctx, parent)
			}),
			Verify: verify,
		},
		{
			Name: "label-for",
			Apply: each(func(ctx context.Context, ref string) error {
				id := f.state(ctx, ref).Attr("id")
				if id == "" || strings.ContainsRune(id, '\'') {
					return errNotApplicable
				}
				label := "//label[@for='" + id + "']"
				if !f.state(ctx, label).Found {
					return errNotApplicable
				}
				return f.page.Click(ctx, label)
			}),
			Verify: verify,
		},
		{
			Name: "mouse-sequence",
			Apply: each(func(ctx context.Context, ref string) error {
				return f.human.IntelligentClick(ctx, ref)
			}),
			Verify: verify,
		},
	}
}

func (f *Filler) singleChoicePlan(q schemas.Question, answers []string) []Strategy {
	return f.pickOnePlan(q, f.sel.SingleOptions, func(opts []liveOption) int {
		i, _ := chooseOption(labelsOf(opts), first(answers))
		return i
	})
}

// scalePlan matches the numeric value first and falls back to label matching.
func (f *Filler) scalePlan(q schemas.Question, answers []string) []Strategy {
	return f.pickOnePlan(q, f.sel.ScaleOptions, func(opts []liveOption) int {
		if n, ok := parseScale(first(answers)); ok {
			want := strconv.Itoa(n)
			for i, o := range opts {
				if o.state.Attr("data-value") == want || o.state.Attr("value") == want || o.label == want {
					return i
				}
			}
		}
		i, _ := chooseOption(labelsOf(opts), first(answers))
		return i
	})
}

func (f *Filler) pickOnePlan(q schemas.Question, rels []string, pick func([]liveOption) int) []Strategy {
	container := q.Container.XPath
	var chosen string
	resolve := func(ctx context.Context) ([]string, error) {
		opts, err := f.liveOptions(ctx, container, rels)
		if err != nil {
			return nil, err
		}
		i := pick(opts)
		if i < 0 {
			return nil, ErrNoTarget
		}
		chosen = opts[i].ref
		return []string{chosen}, nil
	}
	verify := func(ctx context.Context) bool {
		return chosen != "" && f.isChecked(ctx, chosen)
	}
	return f.selectCascade(resolve, verify)
}

func (f *Filler) multiChoicePlan(q schemas.Question, answers []string) []Strategy {
	container := q.Container.XPath
	var chosen []string
	resolve := func(ctx context.Context) ([]string, error) {
		opts, err := f.liveOptions(ctx, container, f.sel.MultiOptions)
		if err != nil {
			return nil, err
		}
		idx := chooseMany(labelsOf(opts), answers)
		if len(idx) == 0 {
			return nil, ErrNoTarget
		}
		chosen = chosen[:0]
		for _, i := range idx {
			chosen = append(chosen, opts[i].ref)
		}
		return chosen, nil
	}
	verify := func(ctx context.Context) bool {
		if len(chosen) == 0 {
			return false
		}
		for _, ref := range chosen {
			if !f.isChecked(ctx, ref) {
				return false
			}
		}
		return true
	}
	return f.selectCascade(resolve, verify)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// -- dropdown --

func (f *Filler) dropdownPlan(q schemas.Question, answers []string) []Strategy {
	container := q.Container.XPath
	answer := first(answers)

	var selected string // option ref chosen by the last apply
	var selectRef, wantValue string

	native := Strategy{
		Name: "select-value",
		Apply: func(ctx context.Context) error {
			ref, err := f.firstRef(ctx, container, f.sel.NativeSelect)
			if err != nil {
				return err
			}
			if ref == "" {
				return errNotApplicable
			}
			opts, err := f.liveOptions(ctx, ref, []string{"//option"})
			if err != nil {
				return err
			}
			var real []liveOption
			for _, o := range opts {
				if _, hasValue := o.state.Attributes["value"]; hasValue && strings.TrimSpace(o.state.Attr("value")) == "" {
					continue
				}
				real = append(real, o)
			}
			i, _ := chooseOption(labelsOf(real), answer)
			if i < 0 {
				return ErrNoTarget
			}
			selectRef = ref
			wantValue = real[i].state.Attr("value")
			if _, ok := real[i].state.Attributes["value"]; !ok {
				wantValue = real[i].label
			}
			if err := f.page.SetProperty(ctx, ref, "value", wantValue); err != nil {
				return err
			}
			f.dispatch(ctx, ref, "input", "change")
			return nil
		},
		Verify: func(ctx context.Context) bool {
			return selectRef != "" && f.state(ctx, selectRef).Value == wantValue
		},
	}

	openAndPick := func(name string, click func(ctx context.Context, ref string) error) Strategy {
		return Strategy{
			Name: name,
			Apply: func(ctx context.Context) error {
				trigger, err := f.firstRef(ctx, container, f.sel.ListTrigger)
				if err != nil {
					return err
				}
				if trigger == "" {
					return errNotApplicable
				}
				if err := click(ctx, trigger); err != nil {
					return fmt.Errorf("open: %w", err)
				}
				if err := f.sleep(ctx, f.cfg.DropdownOpenDelay); err != nil {
					return err
				}

				opts, err := f.liveOptions(ctx, container, f.sel.ListOptions)
				if err != nil {
					return err
				}
				if len(opts) == 0 {
					// Popups are often rendered outside the question container.
					if opts, err = f.liveOptions(ctx, "", f.sel.Popup); err != nil {
						return err
					}
				}
				var real []liveOption
				for _, o := range opts {
					if hasToken(o.state.Attr("class"), "isPlaceholder") {
						continue
					}
					if _, ok := o.state.Attributes["data-value"]; ok && o.state.Attr("data-value") == "" {
						continue
					}
					real = append(real, o)
				}
				i, _ := findOption(labelsOf(real), answer)
				if i < 0 {
					if err := f.human.PressKey(ctx, humanoid.KeyEscape); err != nil {
						f.logger.Debug("Closing dropdown failed.", zap.Error(err))
					}
					return ErrNoMatch
				}
				selected = real[i].ref
				return click(ctx, selected)
			},
			Verify: func(ctx context.Context) bool {
				if selected == "" {
					return false
				}
				st := f.state(ctx, selected)
				return st.Attr("aria-selected") == "true" || st.Selected || f.isChecked(ctx, selected)
			},
		}
	}

	return []Strategy{
		native,
		openAndPick("open-and-pick", f.page.Click),
		openAndPick("mouse-open-and-pick", f.human.IntelligentClick),
	}
}
