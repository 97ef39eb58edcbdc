package humanoid

import (
	"context"
	"math"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// moveToLocked moves the pointer from its current position to target along a
// smoothstep path perturbed by Perlin noise. The perturbation fades to zero at
// the end so the final event lands exactly on target.
func (h *Humanoid) moveToLocked(ctx context.Context, target Vector2D) error {
	start := h.currentPos
	dist := start.Dist(target)
	if dist < 0.5 {
		return nil
	}

	steps := h.cfg.MoveSteps
	if !h.cfg.Enabled || steps < 1 {
		steps = 1
	}
	total := h.movementDurationLocked(dist)
	perStep := total / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := float64(i) / float64(steps)
		eased := t * t * (3 - 2*t)
		p := start.Add(target.Sub(start).Mul(eased))
		if i < steps && h.cfg.Enabled {
			h.noiseTime += 0.15
			fade := 1 - t
			p = p.Add(Vector2D{
				X: h.noiseX.Noise1D(h.noiseTime) * h.cfg.PerlinAmplitude * fade,
				Y: h.noiseY.Noise1D(h.noiseTime) * h.cfg.PerlinAmplitude * fade,
			})
		}
		ev := schemas.MouseEventData{
			Type:    schemas.MouseMove,
			X:       p.X,
			Y:       p.Y,
			Button:  schemas.ButtonNone,
			Buttons: 0,
		}
		if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
			return err
		}
		h.currentPos = p
		if perStep > 0 {
			if err := h.executor.Sleep(ctx, perStep); err != nil {
				return err
			}
		}
	}
	h.currentPos = target
	return nil
}

// movementDurationLocked applies Fitts's law with a fixed 20px target width.
func (h *Humanoid) movementDurationLocked(distance float64) time.Duration {
	if !h.cfg.Enabled {
		return 0
	}
	const w = 20.0
	id := math.Log2(1.0 + distance/w)
	mt := h.cfg.FittsA + h.cfg.FittsB*id
	mt += mt * (h.rng.Float64()*0.2 - 0.1)
	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt) * time.Millisecond
}
