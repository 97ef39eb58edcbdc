// internal/browser/session/cdp_executor.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
)

const (
	mouseTimeout    = 10 * time.Second
	keysTimeout     = 10 * time.Second
	keyTimeout      = 5 * time.Second
	geometryTimeout = 10 * time.Second
)

// cdpExecutor implements humanoid.Executor with CDP input events. Selectors
// are XPath expressions, the same refs the filler works with.
type cdpExecutor struct {
	ctx            context.Context // the tab context
	logger         *zap.Logger
	runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error
}

var _ humanoid.Executor = (*cdpExecutor)(nil)

func (e *cdpExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return e.ctx.Err()
	case <-t.C:
		return nil
	}
}

// run applies timeout to ctx and reports a timeout distinctly from other failures.
func (e *cdpExecutor) run(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := e.runActionsFunc(opCtx, actions...)
	if err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		e.logger.Debug("CDP operation timed out.", zap.String("op", op), zap.Duration("timeout", timeout))
		return fmt.Errorf("cdp %s timed out after %v: %w", op, timeout, opCtx.Err())
	}
	return err
}

func (e *cdpExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithButton(input.MouseButton(data.Button)).
		WithButtons(data.Buttons).
		WithClickCount(int64(data.ClickCount))
	return e.run(ctx, "mouse event", mouseTimeout, p)
}

func (e *cdpExecutor) SendKeys(ctx context.Context, keys string) error {
	return e.run(ctx, "send keys", keysTimeout, chromedp.KeyEvent(keys))
}

// DispatchStructuredKey presses a named key with modifiers as a down/up pair.
func (e *cdpExecutor) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	mods := cdpModifiers(data.Modifiers)
	down := input.DispatchKeyEvent(input.KeyRawDown).WithModifiers(mods).WithKey(data.Key)
	up := input.DispatchKeyEvent(input.KeyUp).WithModifiers(mods).WithKey(data.Key)
	if k, ok := namedKeys[data.Key]; ok {
		down = down.WithWindowsVirtualKeyCode(k.vk).WithNativeVirtualKeyCode(k.vk).WithCode(k.code)
		up = up.WithWindowsVirtualKeyCode(k.vk).WithNativeVirtualKeyCode(k.vk).WithCode(k.code)
	}
	if err := e.run(ctx, "key "+data.Key, keyTimeout, down, up); err != nil {
		return fmt.Errorf("dispatch key %q: %w", data.Key, err)
	}
	return nil
}

type keyDef struct {
	vk   int64
	code string
}

// namedKeys carries the key codes for the keys the filler presses. Without
// them Chromium does not run default actions such as select-all.
var namedKeys = map[string]keyDef{
	"Backspace":  {8, "Backspace"},
	"Tab":        {9, "Tab"},
	"Enter":      {13, "Enter"},
	"Escape":     {27, "Escape"},
	"ArrowLeft":  {37, "ArrowLeft"},
	"ArrowUp":    {38, "ArrowUp"},
	"ArrowRight": {39, "ArrowRight"},
	"ArrowDown":  {40, "ArrowDown"},
	"Delete":     {46, "Delete"},
	"a":          {65, "KeyA"},
}

func cdpModifiers(m schemas.KeyModifier) input.Modifier {
	var out input.Modifier
	if m&schemas.ModAlt != 0 {
		out |= input.ModifierAlt
	}
	if m&schemas.ModCtrl != 0 {
		out |= input.ModifierCtrl
	}
	if m&schemas.ModMeta != 0 {
		out |= input.ModifierMeta
	}
	if m&schemas.ModShift != 0 {
		out |= input.ModifierShift
	}
	return out
}

// GetElementGeometry scrolls the element matched by an XPath into view and
// returns its viewport quad.
func (e *cdpExecutor) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	script, err := invoke(geometryFn, selector)
	if err != nil {
		return nil, err
	}
	var geo *schemas.ElementGeometry
	if err := e.run(ctx, "geometry", geometryTimeout, chromedp.Evaluate(script, &geo)); err != nil {
		return nil, fmt.Errorf("geometry for %s: %w", selector, err)
	}
	if geo == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return geo, nil
}
