// internal/browser/humanoid/interface.go
package humanoid

import (
	"context"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Controller is the high-level input surface used by the field filler.
// Selectors are XPath expressions resolved by the Executor.
type Controller interface {
	IntelligentClick(ctx context.Context, selector string) error
	Type(ctx context.Context, text string, opts *TypeOptions) error
	// Shortcut executes a keyboard shortcut (e.g., "ctrl+a").
	Shortcut(ctx context.Context, keysExpression string) error
	PressKey(ctx context.Context, key ControlKey) error
	CognitivePause(ctx context.Context, meanMs, stdDevMs float64) error
}

// Executor defines the low-level primitives the Humanoid needs from a page.
type Executor interface {
	Sleep(ctx context.Context, d time.Duration) error
	DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error
	// SendKeys types literal text into the focused element.
	SendKeys(ctx context.Context, keys string) error
	// DispatchStructuredKey handles pressing a key combination or a named key.
	// The executor is responsible for the KeyDown and KeyUp sequence.
	DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error
	GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error)
}

// TypeOptions tunes a single Type call.
type TypeOptions struct {
	// MeanDelay overrides the configured mean inter-key delay.
	MeanDelay time.Duration
	// Jitter is the upper bound of the uniform random delay added per key.
	Jitter time.Duration
}

// ControlKey names non-printing keys dispatched through DispatchStructuredKey.
type ControlKey string

const (
	KeyBackspace ControlKey = "Backspace"
	KeyEnter     ControlKey = "Enter"
	KeyTab       ControlKey = "Tab"
	KeyEscape    ControlKey = "Escape"
	KeyArrowDown ControlKey = "ArrowDown"
)
