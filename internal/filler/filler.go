// Package filler performs type-specific input simulation for one analyzed
// question and verifies the result against the live page.
//
// Every question type is reduced to an ordered list of Strategy values. The
// core loop tries each strategy in turn, waits for the page to settle and
// reads the field back. An attempt succeeds on the first strategy whose Apply
// returns nil and whose Verify reports true. Attempts are bounded by
// FillerConfig.MaxRetries.
package filler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"go.uber.org/zap"
)

// Page is the live document surface the filler acts on. XPath arguments are
// element refs or refs with a relative path appended.
type Page interface {
	humanoid.Executor

	// Query returns one ref XPath per element matching xpath.
	Query(ctx context.Context, xpath string) ([]string, error)
	// State reads an element back. A missing element is Found=false, not an error.
	State(ctx context.Context, xpath string) (schemas.ElementState, error)
	Click(ctx context.Context, xpath string) error
	Focus(ctx context.Context, xpath string) error
	SetProperty(ctx context.Context, xpath, name string, value interface{}) error
	SetAttribute(ctx context.Context, xpath, name, value string) error
	DispatchEvents(ctx context.Context, xpath string, events ...string) error
}

var (
	// ErrUnsupported is reported for question types with no fill strategy.
	ErrUnsupported = errors.New("unsupported question type")
	// ErrStaleRef is reported when a question belongs to an older snapshot.
	ErrStaleRef = errors.New("question refers to a stale snapshot")
	// ErrEmptyAnswer is reported when there is nothing to fill.
	ErrEmptyAnswer = errors.New("empty answer")
	// ErrUnparseable is reported for date and time answers in no known layout.
	ErrUnparseable = errors.New("answer is not a recognised date or time")
	// ErrNoTarget is reported when no fillable element can be located.
	ErrNoTarget = errors.New("no fillable element found")
	// ErrNoMatch is reported when a custom dropdown has no matching option.
	ErrNoMatch = errors.New("no matching option")

	errNotApplicable = errors.New("strategy not applicable")
)

// Strategy is one way of putting an answer into a field.
type Strategy struct {
	Name   string
	Apply  func(ctx context.Context) error
	Verify func(ctx context.Context) bool
}

// Filler fills questions against a live page.
type Filler struct {
	page   Page
	human  humanoid.Controller
	cfg    config.FillerConfig
	sel    Selectors
	speed  schemas.Speed
	logger *zap.Logger
}

// New creates a filler. human drives the keyboard and pointer on page.
func New(page Page, human humanoid.Controller, cfg config.FillerConfig, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Filler{
		page:   page,
		human:  human,
		cfg:    cfg,
		sel:    DefaultSelectors(),
		speed:  schemas.SpeedNormal,
		logger: logger.Named("filler"),
	}
}

// WithSpeed returns a copy of f that types at the given preset.
func (f *Filler) WithSpeed(s schemas.Speed) *Filler {
	c := *f
	c.speed = s
	return &c
}

// WithSelectors returns a copy of f using sel.
func (f *Filler) WithSelectors(sel Selectors) *Filler {
	c := *f
	c.sel = sel
	return &c
}

// Fill puts answer into q. It never returns an error; failures are reported
// in the result so the caller can move on to the next question.
func (f *Filler) Fill(ctx context.Context, snap *schemas.FormSnapshot, q schemas.Question, answer schemas.Answer) (res schemas.FillResult) {
	res = schemas.FillResult{Index: q.Index}
	log := f.logger.With(zap.Int("question", q.Index), zap.String("type", string(q.Type)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Filler panicked.", zap.Any("panic", r))
			res.Success = false
			res.Err = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if snap != nil && q.Container.Generation != snap.Generation {
		return f.fail(log, res, ErrStaleRef)
	}
	if answer.IsEmpty() {
		return f.fail(log, res, ErrEmptyAnswer)
	}

	var (
		strategies []Strategy
		err        error
	)
	switch q.Type {
	case schemas.SingleChoice:
		strategies = f.singleChoicePlan(q, answer.Values())
	case schemas.MultiChoice:
		strategies = f.multiChoicePlan(q, answer.Values())
	case schemas.Dropdown:
		strategies = f.dropdownPlan(q, answer.Values())
	case schemas.Scale:
		strategies = f.scalePlan(q, answer.Values())
	case schemas.ShortText, schemas.Paragraph, schemas.Email, schemas.URL, schemas.Number:
		strategies = f.textPlan(q, answer.Text)
	case schemas.Date:
		strategies, err = f.datePlan(q, answer.Text)
	case schemas.Time:
		strategies, err = f.timePlan(q, answer.Text)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupported, q.Type)
	}
	if err != nil {
		return f.fail(log, res, err)
	}

	res = f.run(ctx, log, q.Index, strategies)
	if res.Success {
		log.Debug("Question filled.", zap.String("strategy", res.Strategy), zap.Int("attempts", res.AttemptsUsed))
	} else {
		log.Warn("Question could not be filled.", zap.Int("attempts", res.AttemptsUsed), zap.String("error", res.Err))
	}
	return res
}

func (f *Filler) fail(log *zap.Logger, res schemas.FillResult, err error) schemas.FillResult {
	log.Warn("Question skipped.", zap.Error(err))
	res.Err = err.Error()
	return res
}

// run is the retry loop shared by every question type.
func (f *Filler) run(ctx context.Context, log *zap.Logger, index int, strategies []Strategy) schemas.FillResult {
	res := schemas.FillResult{Index: index}
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		res.AttemptsUsed = attempt
		for _, s := range strategies {
			if err := ctx.Err(); err != nil {
				res.Err = err.Error()
				return res
			}
			if err := s.Apply(ctx); err != nil {
				if !errors.Is(err, errNotApplicable) {
					lastErr = fmt.Errorf("%s: %w", s.Name, err)
					log.Debug("Strategy failed.", zap.String("strategy", s.Name), zap.Int("attempt", attempt), zap.Error(err))
				}
				continue
			}
			if err := f.sleep(ctx, f.cfg.SettleDelay); err != nil {
				res.Err = err.Error()
				return res
			}
			if s.Verify(ctx) {
				res.Success = true
				res.Strategy = s.Name
				return res
			}
			lastErr = fmt.Errorf("%s: verification failed", s.Name)
		}
		if attempt < f.cfg.MaxRetries {
			if err := f.retryPause(ctx); err != nil {
				res.Err = err.Error()
				return res
			}
		}
	}
	if lastErr == nil {
		lastErr = ErrNoTarget
	}
	res.Err = lastErr.Error()
	return res
}

func (f *Filler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return f.page.Sleep(ctx, d)
}

// retryPause waits between attempts for a jittered span centred on RetryDelay.
func (f *Filler) retryPause(ctx context.Context) error {
	if f.cfg.RetryDelay <= 0 {
		return ctx.Err()
	}
	mean := float64(f.cfg.RetryDelay) / float64(time.Millisecond)
	return f.human.CognitivePause(ctx, mean, mean/4)
}

// -- live page helpers --

// firstRefs returns the matches of the first relative expression that finds anything under base.
func (f *Filler) firstRefs(ctx context.Context, base string, rels []string) ([]string, error) {
	for _, rel := range rels {
		refs, err := f.page.Query(ctx, base+rel)
		if err != nil {
			return nil, err
		}
		if len(refs) > 0 {
			return refs, nil
		}
	}
	return nil, nil
}

func (f *Filler) firstRef(ctx context.Context, base string, rels []string) (string, error) {
	refs, err := f.firstRefs(ctx, base, rels)
	if err != nil || len(refs) == 0 {
		return "", err
	}
	return refs[0], nil
}

func (f *Filler) state(ctx context.Context, ref string) schemas.ElementState {
	st, err := f.page.State(ctx, ref)
	if err != nil {
		f.logger.Debug("State read failed.", zap.String("ref", ref), zap.Error(err))
		return schemas.ElementState{}
	}
	return st
}

// dispatch fires events and ignores failures; they are advisory for the host page.
func (f *Filler) dispatch(ctx context.Context, ref string, events ...string) {
	if err := f.page.DispatchEvents(ctx, ref, events...); err != nil {
		f.logger.Debug("Event dispatch failed.", zap.String("ref", ref), zap.Strings("events", events), zap.Error(err))
	}
}
