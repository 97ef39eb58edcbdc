package humanoid

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// IntelligentClick moves to the element and performs a press, hold, release
// sequence. The lock is held for the whole action.
func (h *Humanoid) IntelligentClick(ctx context.Context, selector string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	geo, err := h.getElementBoxBySelector(ctx, selector)
	if err != nil {
		return err
	}
	target, err := h.clickTargetLocked(geo)
	if err != nil {
		return fmt.Errorf("humanoid: %s: %w", selector, err)
	}
	if err := h.moveToLocked(ctx, target); err != nil {
		return err
	}

	mouseDown := schemas.MouseEventData{
		Type:       schemas.MousePress,
		X:          target.X,
		Y:          target.Y,
		Button:     schemas.ButtonLeft,
		ClickCount: 1,
		Buttons:    1,
	}
	if err := h.executor.DispatchMouseEvent(ctx, mouseDown); err != nil {
		return err
	}
	h.currentButtonState = schemas.ButtonLeft

	if err := h.executor.Sleep(ctx, h.clickHoldLocked()); err != nil {
		// Never leave the button logically pressed.
		_ = h.releaseLocked(context.Background(), target)
		return err
	}
	return h.releaseLocked(ctx, target)
}

func (h *Humanoid) releaseLocked(ctx context.Context, at Vector2D) error {
	mouseUp := schemas.MouseEventData{
		Type:       schemas.MouseRelease,
		X:          at.X,
		Y:          at.Y,
		Button:     schemas.ButtonLeft,
		ClickCount: 1,
		Buttons:    0,
	}
	err := h.executor.DispatchMouseEvent(ctx, mouseUp)
	h.currentButtonState = schemas.ButtonNone
	return err
}

// clickHoldLocked draws a hold duration uniformly from the configured window.
func (h *Humanoid) clickHoldLocked() time.Duration {
	lo, hi := h.cfg.ClickHoldMinMs, h.cfg.ClickHoldMaxMs
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	return time.Duration(lo+h.rng.Intn(hi-lo)) * time.Millisecond
}
