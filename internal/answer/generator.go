// Package answer turns an analyzed question into an answer, using the remote
// model when a key is available and a deterministic offline table otherwise.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"github.com/xkilldash9x/formpilot-cli/internal/llmclient"
)

var (
	// ErrNoKeys means no API key is configured.
	ErrNoKeys = errors.New("no API keys configured")
	// ErrKeysExhausted means every key hit its quota in this run.
	ErrKeysExhausted = errors.New("all API keys exhausted")
)

// Client is the remote model transport.
type Client interface {
	Generate(ctx context.Context, apiKey string, req llmclient.Request) (string, error)
}

// Generator produces answers. It owns the key ring, so exhaustion state is
// shared by every question in a run.
type Generator struct {
	client Client
	ring   *KeyRing
	cfg    config.LLMConfig
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the clock used for offline date and time answers.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// NewGenerator builds a generator over keys.
func NewGenerator(client Client, keys []string, cfg config.LLMConfig, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	g := &Generator{
		client: client,
		ring:   NewKeyRing(keys),
		cfg:    cfg,
		logger: logger.Named("answer"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Keys exposes the ring so callers can reload or reset it.
func (g *Generator) Keys() *KeyRing { return g.ring }

// ResetRun makes every key usable again for a new fill run.
func (g *Generator) ResetRun() { g.ring.Reset() }

// Generate never fails: any remote error degrades to an offline answer.
func (g *Generator) Generate(ctx context.Context, q schemas.Question, prefs schemas.Preferences) schemas.Answer {
	log := g.logger.With(zap.Int("question", q.Index), zap.String("type", string(q.Type)))

	raw, err := g.remote(ctx, q, prefs)
	if err != nil {
		log.Warn("Using offline answer.", zap.Error(err), zap.String("class", llmclient.Classify(err).String()))
		return Offline(q, prefs, g.now())
	}
	ans := Process(q, raw)
	if ans.IsEmpty() {
		log.Warn("Model reply was empty after cleanup; using offline answer.")
		return Offline(q, prefs, g.now())
	}
	log.Debug("Answer generated.", zap.String("answer", ans.Text))
	return ans
}

// remote asks the model, rotating to the next key on quota errors. Each
// rotation waits rotation_delay; attempts across all keys are bounded by
// max_attempts.
func (g *Generator) remote(ctx context.Context, q schemas.Question, prefs schemas.Preferences) (string, error) {
	if g.client == nil || g.ring.Len() == 0 {
		return "", ErrNoKeys
	}
	req := llmclient.Request{
		Prompt:      BuildPrompt(q, prefs),
		Temperature: Temperature(g.cfg, q.Type),
	}

	var text string
	operation := func() error {
		key, ok := g.ring.Active()
		if !ok {
			return backoff.Permanent(ErrKeysExhausted)
		}
		out, err := g.client.Generate(ctx, key, req)
		if err == nil {
			text = out
			return nil
		}
		if !llmclient.IsQuota(err) {
			return backoff.Permanent(err)
		}
		g.ring.MarkExhausted(key)
		if _, ok := g.ring.Active(); !ok {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrKeysExhausted, err))
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.cfg.RotationDelay), uint64(g.cfg.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		g.logger.Info("API key quota exceeded, rotating.", zap.Error(err), zap.Duration("wait", wait), zap.Int("keys_left", g.ring.Available()))
	}
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return "", err
	}
	return text, nil
}
