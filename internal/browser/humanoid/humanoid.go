// internal/browser/humanoid/humanoid.go
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"go.uber.org/zap"
)

// Humanoid drives an Executor with human-like pointer and keyboard timing.
type Humanoid struct {
	// mu protects all mutable fields. Public methods acquire it; helpers
	// suffixed with Locked assume it is held.
	mu                 sync.Mutex
	cfg                Config
	logger             *zap.Logger
	executor           Executor
	currentPos         Vector2D
	currentButtonState schemas.MouseButton
	noiseTime          float64
	rng                *rand.Rand
	noiseX             *perlin.Perlin
	noiseY             *perlin.Perlin
}

var _ Controller = (*Humanoid)(nil)

// New creates and initializes a new Humanoid instance.
func New(cfg Config, logger *zap.Logger, executor Executor) *Humanoid {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := time.Now().UnixNano()
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}
	cfg.FinalizeSessionPersona(rng)

	// Standard Perlin noise parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Humanoid{
		cfg:                cfg,
		logger:             logger.Named("humanoid"),
		executor:           executor,
		currentButtonState: schemas.ButtonNone,
		rng:                rng,
		noiseX:             perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:             perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// NewTestHumanoid creates a Humanoid instance with deterministic dependencies for testing.
func NewTestHumanoid(executor Executor, seed int64) *Humanoid {
	cfg := DefaultConfig()
	cfg.Rng = rand.New(rand.NewSource(seed))
	h := New(cfg, zap.NewNop(), executor)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.noiseX = perlin.NewPerlin(2, 2, 3, seed)
	h.noiseY = perlin.NewPerlin(2, 2, 3, seed+1)
	h.cfg.FittsA = 100.0
	h.cfg.FittsB = 150.0
	h.cfg.PerlinAmplitude = 2.0
	h.cfg.ClickNoise = 1.0
	h.cfg.KeyHoldMean = 40.0
	h.cfg.KeyHoldStdDev = 0.0
	return h
}

// CognitivePause sleeps for a normally distributed duration.
func (h *Humanoid) CognitivePause(ctx context.Context, meanMs, stdDevMs float64) error {
	h.mu.Lock()
	d := time.Duration(meanMs+h.rng.NormFloat64()*stdDevMs) * time.Millisecond
	h.mu.Unlock()
	if d <= 0 {
		return nil
	}
	return h.executor.Sleep(ctx, d)
}

// Position returns the last known pointer position.
func (h *Humanoid) Position() Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}
