package humanoid

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// commonNgrams contains letter combinations typed faster than average.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true, "ng": true, "ka": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true, "ang": true,
}

// Type sends text to the focused element one character at a time. There is no
// typo model: the filler verifies read-back against the exact answer.
func (h *Humanoid) Type(ctx context.Context, text string, opts *TypeOptions) error {
	runes := []rune(text)
	for i := range runes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.keyPause(ctx, opts, runes, i); err != nil {
			return err
		}
		if err := h.executor.SendKeys(ctx, string(runes[i])); err != nil {
			return fmt.Errorf("humanoid: failed to send key '%c': %w", runes[i], err)
		}
	}
	return nil
}

// keyPause sleeps for the inter-key delay before runes[index].
func (h *Humanoid) keyPause(ctx context.Context, opts *TypeOptions, runes []rune, index int) error {
	h.mu.Lock()
	cfg := h.cfg
	randNorm := h.rng.NormFloat64()
	var jitter time.Duration
	if opts != nil && opts.Jitter > 0 {
		jitter = time.Duration(h.rng.Int63n(int64(opts.Jitter)))
	}
	h.mu.Unlock()

	mean := cfg.KeyPauseMean
	stdDev := cfg.KeyPauseStdDev
	if opts != nil && opts.MeanDelay > 0 {
		scale := float64(opts.MeanDelay.Milliseconds()) / cfg.KeyPauseMean
		mean *= scale
		stdDev *= scale
	}
	minDelay := math.Min(cfg.KeyPauseMin, mean)

	ngramFactor := 1.0
	if index > 1 {
		if commonNgrams[strings.ToLower(string(runes[index-2:index+1]))] {
			ngramFactor = cfg.KeyPauseNgramFactor3
		}
	}
	if ngramFactor == 1.0 && index > 0 {
		if commonNgrams[strings.ToLower(string(runes[index-1:index+1]))] {
			ngramFactor = cfg.KeyPauseNgramFactor2
		}
	}
	mean *= ngramFactor

	delay := math.Max(minDelay, mean+randNorm*stdDev*0.25)
	d := time.Duration(delay*float64(time.Millisecond)) + jitter
	if d <= 0 {
		return nil
	}
	return h.executor.Sleep(ctx, d)
}

// keyHoldDuration calculates how long a key should be held down.
func (h *Humanoid) keyHoldDuration() time.Duration {
	h.mu.Lock()
	mean, stdDev := h.cfg.KeyHoldMean, h.cfg.KeyHoldStdDev
	randNorm := h.rng.NormFloat64()
	h.mu.Unlock()
	ms := math.Max(15.0, mean+randNorm*stdDev)
	return time.Duration(ms * float64(time.Millisecond))
}

// Shortcut executes a keyboard shortcut such as "ctrl+a".
func (h *Humanoid) Shortcut(ctx context.Context, keysExpression string) error {
	data, err := parseKeyExpression(keysExpression)
	if err != nil {
		return fmt.Errorf("humanoid: failed to parse shortcut expression '%s': %w", keysExpression, err)
	}
	if err := h.executor.DispatchStructuredKey(ctx, data); err != nil {
		return fmt.Errorf("humanoid: failed to dispatch shortcut '%s': %w", keysExpression, err)
	}
	return h.executor.Sleep(ctx, h.keyHoldDuration())
}

// PressKey presses and releases a single named key.
func (h *Humanoid) PressKey(ctx context.Context, key ControlKey) error {
	if err := h.executor.DispatchStructuredKey(ctx, schemas.KeyEventData{Key: string(key)}); err != nil {
		return fmt.Errorf("humanoid: failed to press %s: %w", key, err)
	}
	return h.executor.Sleep(ctx, h.keyHoldDuration())
}

// parseKeyExpression turns "ctrl+shift+a" into a KeyEventData. Exactly one
// non-modifier key is required. Shift uppercases single letters, and a single
// uppercase letter implies shift.
func parseKeyExpression(expression string) (schemas.KeyEventData, error) {
	var out schemas.KeyEventData
	if strings.TrimSpace(expression) == "" {
		return out, fmt.Errorf("empty expression")
	}

	var key string
	for _, raw := range strings.Split(expression, "+") {
		part := strings.TrimSpace(raw)
		if part == "" {
			return out, fmt.Errorf("empty component in %q", expression)
		}
		switch strings.ToLower(part) {
		case "ctrl", "control":
			out.Modifiers |= schemas.ModCtrl
		case "shift":
			out.Modifiers |= schemas.ModShift
		case "alt", "option":
			out.Modifiers |= schemas.ModAlt
		case "meta", "cmd", "command", "win", "super":
			out.Modifiers |= schemas.ModMeta
		default:
			if key != "" {
				return out, fmt.Errorf("multiple keys in %q", expression)
			}
			key = part
		}
	}
	if key == "" {
		return out, fmt.Errorf("no key in %q", expression)
	}

	if r := []rune(key); len(r) == 1 && unicode.IsLetter(r[0]) {
		if unicode.IsUpper(r[0]) {
			out.Modifiers |= schemas.ModShift
		} else if out.Modifiers&schemas.ModShift != 0 {
			key = strings.ToUpper(key)
		}
	}
	out.Key = key
	return out, nil
}
