package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

const subscriberBuffer = 64

// Subscribe returns a channel of progress events and a function that
// unsubscribes and closes it. Slow subscribers miss events rather than
// stalling the run.
func (o *Orchestrator) Subscribe() (<-chan schemas.ProgressEvent, func()) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	id := o.nextSub
	o.nextSub++
	ch := make(chan schemas.ProgressEvent, subscriberBuffer)
	o.subs[id] = ch
	return ch, func() {
		o.subsMu.Lock()
		defer o.subsMu.Unlock()
		if c, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(c)
		}
	}
}

func (o *Orchestrator) publish(ev schemas.ProgressEvent) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for id, ch := range o.subs {
		select {
		case ch <- ev:
		default:
			o.logger.Debug("Progress subscriber is full; dropping event.", zap.Int("subscriber", id), zap.String("phase", string(ev.Phase)))
		}
	}
}

// Watch re-analyzes the page after it stops changing for the configured
// debounce interval. Notifications that arrive during a fill run are
// ignored. It returns when ctx is done or mutations is closed.
func (o *Orchestrator) Watch(ctx context.Context, mutations <-chan struct{}) error {
	debounce := o.cfg.ReanalyzeDebounce
	if debounce <= 0 {
		debounce = time.Second
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-mutations:
			if !ok {
				return nil
			}
			if o.busy.Load() {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true
		case <-timer.C:
			pending = false
			if o.busy.Load() {
				continue
			}
			snap, err := o.Analyze(ctx)
			switch {
			case errors.Is(err, ErrBusy), errors.Is(err, context.Canceled):
			case err != nil:
				o.logger.Warn("Re-analysis after page change failed.", zap.Error(err))
			default:
				o.publish(schemas.ProgressEvent{
					Phase:   schemas.PhaseAnalyzed,
					Total:   len(snap.Questions),
					Message: "Page changed; form re-analyzed.",
				})
			}
		}
	}
}
