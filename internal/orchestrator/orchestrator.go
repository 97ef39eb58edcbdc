// File: internal/orchestrator/orchestrator.go
// Description: Runs the analyze, generate and fill pipeline over one page. It
// is injected with its components via interfaces so it can run against a live
// browser session or the in-memory page.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// ErrBusy is returned when a fill run is already in progress.
var ErrBusy = errors.New("a fill run is already in progress")

// Page is the document the orchestrator drives.
type Page interface {
	Snapshot(ctx context.Context) (*dom.Document, error)
	Sleep(ctx context.Context, d time.Duration) error
}

// Analyzer turns a document snapshot into questions.
type Analyzer interface {
	Analyze(ctx context.Context, doc *dom.Document) (*schemas.FormSnapshot, error)
}

// Generator produces an answer for a question. It must not fail.
type Generator interface {
	Generate(ctx context.Context, q schemas.Question, prefs schemas.Preferences) schemas.Answer
}

// Filler puts an answer into the page. It must not fail.
type Filler interface {
	Fill(ctx context.Context, snap *schemas.FormSnapshot, q schemas.Question, ans schemas.Answer) schemas.FillResult
}

// runResetter is implemented by generators that keep per-run state.
type runResetter interface {
	ResetRun()
}

// Orchestrator manages fill runs for one page. At most one run is in flight.
type Orchestrator struct {
	page      Page
	analyzer  Analyzer
	generator Generator
	filler    Filler

	fillerCfg config.FillerConfig
	cfg       config.OrchestratorConfig
	prefs     schemas.Preferences
	logger    *zap.Logger

	busy      atomic.Bool
	analyzeMu sync.Mutex

	mu          sync.RWMutex
	last        *schemas.FormSnapshot
	lastSummary *schemas.RunSummary

	subsMu  sync.Mutex
	subs    map[int]chan schemas.ProgressEvent
	nextSub int
}

// New creates an Orchestrator.
func New(
	cfg config.Interface,
	logger *zap.Logger,
	page Page,
	analyzer Analyzer,
	generator Generator,
	filler Filler,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		page == nil ||
		analyzer == nil ||
		generator == nil ||
		filler == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		page:      page,
		analyzer:  analyzer,
		generator: generator,
		filler:    filler,
		fillerCfg: cfg.Filler(),
		cfg:       cfg.Orchestrator(),
		prefs:     cfg.Preferences().Normalize(),
		logger:    logger.Named("orchestrator"),
		subs:      make(map[int]chan schemas.ProgressEvent),
	}, nil
}

// Busy reports whether a fill run is in progress.
func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// Preferences returns the preferences used for generation.
func (o *Orchestrator) Preferences() schemas.Preferences { return o.prefs }

// LastSnapshot returns the most recent analysis, or nil.
func (o *Orchestrator) LastSnapshot() *schemas.FormSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// LastSummary returns the summary of the most recent run, or nil.
func (o *Orchestrator) LastSummary() *schemas.RunSummary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastSummary
}

// Analyze takes a fresh snapshot of the page. It is refused during a run
// because a new snapshot invalidates the refs the run is using.
func (o *Orchestrator) Analyze(ctx context.Context) (*schemas.FormSnapshot, error) {
	return o.analyze(ctx, false)
}

func (o *Orchestrator) analyze(ctx context.Context, inRun bool) (*schemas.FormSnapshot, error) {
	o.analyzeMu.Lock()
	defer o.analyzeMu.Unlock()
	if !inRun && o.busy.Load() {
		return nil, ErrBusy
	}

	doc, err := o.page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot page: %w", err)
	}
	snap, err := o.analyzer.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.last = snap
	o.mu.Unlock()
	o.logger.Info("Form analyzed.",
		zap.String("title", snap.Title),
		zap.Int("questions", len(snap.Questions)),
		zap.Uint64("generation", snap.Generation),
		zap.Bool("degraded", snap.Degraded))
	return snap, nil
}

// Fill answers and fills the questions of a fresh snapshot, one at a time.
// With onlyUnanswered, questions that already hold a value are skipped.
func (o *Orchestrator) Fill(ctx context.Context, onlyUnanswered bool) (schemas.RunSummary, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return schemas.RunSummary{}, ErrBusy
	}
	defer o.busy.Store(false)

	start := time.Now()
	summary := schemas.RunSummary{RunID: uuid.NewString(), Results: []schemas.FillResult{}}
	log := o.logger.With(zap.String("run_id", summary.RunID))

	if r, ok := o.generator.(runResetter); ok {
		r.ResetRun()
	}

	snap, err := o.analyze(ctx, true)
	if err != nil {
		return summary, fmt.Errorf("analyze: %w", err)
	}

	questions := snap.Questions
	if onlyUnanswered {
		questions = snap.Unanswered()
	}
	summary.Skipped = len(snap.Questions) - len(questions)
	total := len(questions)

	log.Info("Fill run started.", zap.Int("questions", total), zap.Int("skipped", summary.Skipped))
	o.publish(schemas.ProgressEvent{RunID: summary.RunID, Phase: schemas.PhaseStarted, Total: total})

	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			o.finish(summary)
			return summary, err
		}
		ev := schemas.ProgressEvent{RunID: summary.RunID, Current: i + 1, Total: total, QuestionText: q.Text}

		ev.Phase = schemas.PhaseGenerating
		o.publish(ev)
		ans := o.generator.Generate(ctx, q, o.prefs)

		ev.Phase = schemas.PhaseFilling
		o.publish(ev)
		res := o.filler.Fill(ctx, snap, q, ans)
		summary.Results = append(summary.Results, res)

		if res.Success {
			summary.SuccessCount++
			ev.Phase = schemas.PhaseFilled
		} else {
			summary.ErrorCount++
			ev.Phase = schemas.PhaseFailed
			ev.Message = res.Err
		}
		o.publish(ev)

		if i < total-1 && o.fillerCfg.QuestionDelay > 0 {
			if err := o.page.Sleep(ctx, o.fillerCfg.QuestionDelay); err != nil {
				summary.Duration = time.Since(start)
				o.finish(summary)
				return summary, err
			}
		}
	}
	summary.Duration = time.Since(start)

	// Answers can reveal or hide questions; refresh the view for the caller.
	if _, err := o.analyze(ctx, true); err != nil {
		log.Warn("Post-run analysis failed.", zap.Error(err))
	}

	o.finish(summary)
	o.publish(schemas.ProgressEvent{
		RunID:   summary.RunID,
		Phase:   schemas.PhaseCompleted,
		Current: total,
		Total:   total,
		Message: StatusMessage(summary, nil),
	})
	log.Info("Fill run finished.",
		zap.Int("success", summary.SuccessCount),
		zap.Int("errors", summary.ErrorCount),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

func (o *Orchestrator) finish(summary schemas.RunSummary) {
	o.mu.Lock()
	o.lastSummary = &summary
	o.mu.Unlock()
}

// StatusMessage renders the outcome of a run for people.
func StatusMessage(summary schemas.RunSummary, err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "A fill is already in progress."
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("Fill cancelled after %d questions.", len(summary.Results))
	case err != nil:
		return fmt.Sprintf("Fill failed: %v", err)
	}
	total := summary.SuccessCount + summary.ErrorCount
	if total == 0 {
		if summary.Skipped > 0 {
			return fmt.Sprintf("Nothing to fill; %d questions already answered.", summary.Skipped)
		}
		return "No questions found on this page."
	}
	msg := fmt.Sprintf("Filled %d of %d questions", summary.SuccessCount, total)
	if summary.ErrorCount > 0 {
		msg += fmt.Sprintf(", %d failed", summary.ErrorCount)
	}
	if summary.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", summary.Skipped)
	}
	return msg + "."
}
