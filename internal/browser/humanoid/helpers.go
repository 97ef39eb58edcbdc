package humanoid

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"go.uber.org/zap"
)

// boxToCenter calculates the geometric center of an element's geometry.
func boxToCenter(geo *schemas.ElementGeometry) (center Vector2D, valid bool) {
	x, y, ok := geo.Center()
	return Vector2D{X: x, Y: y}, ok
}

// getElementBoxBySelector finds an element and retrieves its geometry via the executor.
func (h *Humanoid) getElementBoxBySelector(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	geo, err := h.executor.GetElementGeometry(ctx, selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("humanoid: geometry retrieval failed for '%s': %w", selector, err)
	}
	if geo == nil {
		return nil, fmt.Errorf("humanoid: executor returned nil geometry for '%s'", selector)
	}
	if len(geo.Vertices) < 8 {
		return nil, fmt.Errorf("humanoid: element '%s' returned invalid geometry", selector)
	}
	if geo.Width <= 0 || geo.Height <= 0 {
		h.logger.Debug("Element found but has zero size.",
			zap.String("selector", selector),
			zap.Int64("width", geo.Width),
			zap.Int64("height", geo.Height))
		return nil, fmt.Errorf("humanoid: element '%s' is not interactable (zero size)", selector)
	}
	return geo, nil
}

// clickTargetLocked picks the point inside geo that will receive the click.
// The offset from the center is bounded so the point never leaves the box.
func (h *Humanoid) clickTargetLocked(geo *schemas.ElementGeometry) (Vector2D, error) {
	center, ok := boxToCenter(geo)
	if !ok {
		return Vector2D{}, fmt.Errorf("humanoid: invalid geometry structure")
	}
	maxX := float64(geo.Width) * 0.25
	maxY := float64(geo.Height) * 0.25
	dx := clamp(h.rng.NormFloat64()*h.cfg.ClickNoise, -maxX, maxX)
	dy := clamp(h.rng.NormFloat64()*h.cfg.ClickNoise, -maxY, maxY)
	return center.Add(Vector2D{X: dx, Y: dy}), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
