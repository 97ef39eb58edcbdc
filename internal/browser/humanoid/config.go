// internal/browser/humanoid/config.go
package humanoid

import (
	"math"
	"math/rand"

	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// Config holds the parameters defining the behavior of the simulation.
type Config struct {
	Enabled bool
	Rng     *rand.Rand

	// Fitts's Law Parameters
	FittsAMean, FittsAStdDev float64
	FittsBMean, FittsBStdDev float64

	// Pointer noise
	PerlinAmplitudeMean, PerlinAmplitudeStdDev float64
	ClickNoiseMean, ClickNoiseStdDev           float64
	MoveSteps                                  int

	// Key hold (dwell) times
	KeyHoldMeanMs, KeyHoldStdDevMs float64

	// Instance Parameters
	FittsA, FittsB             float64
	PerlinAmplitude            float64
	ClickNoise                 float64
	KeyHoldMean, KeyHoldStdDev float64

	// Clicking Behavior
	ClickHoldMinMs int
	ClickHoldMaxMs int

	// Key Pause (IKD) Parameters
	KeyPauseMean         float64
	KeyPauseStdDev       float64
	KeyPauseMin          float64
	KeyPauseNgramFactor2 float64
	KeyPauseNgramFactor3 float64
}

// DefaultConfig returns a configuration representing an average user.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		FittsAMean: 100.0, FittsAStdDev: 15.0,
		FittsBMean: 120.0, FittsBStdDev: 20.0,
		PerlinAmplitudeMean: 2.5, PerlinAmplitudeStdDev: 0.5,
		ClickNoiseMean: 1.5, ClickNoiseStdDev: 0.5,
		MoveSteps:     12,
		KeyHoldMeanMs: 45.0, KeyHoldStdDevMs: 10.0,
		ClickHoldMinMs:       50,
		ClickHoldMaxMs:       120,
		KeyPauseMean:         50.0,
		KeyPauseStdDev:       15.0,
		KeyPauseMin:          10.0,
		KeyPauseNgramFactor2: 0.7,
		KeyPauseNgramFactor3: 0.55,
	}
}

// FromAppConfig overlays the config-file knobs on the defaults.
func FromAppConfig(hc config.HumanoidConfig) Config {
	c := DefaultConfig()
	c.Enabled = hc.Enabled
	if hc.ClickHoldMinMs > 0 {
		c.ClickHoldMinMs = hc.ClickHoldMinMs
	}
	if hc.ClickHoldMaxMs > 0 {
		c.ClickHoldMaxMs = hc.ClickHoldMaxMs
	}
	if hc.KeyHoldMeanMs > 0 {
		c.KeyHoldMeanMs = hc.KeyHoldMeanMs
	}
	return c
}

// FinalizeSessionPersona generates the fixed instance parameters for a session.
func (c *Config) FinalizeSessionPersona(rng *rand.Rand) {
	c.Rng = rng
	c.FittsA = sampleGaussian(rng, c.FittsAMean, c.FittsAStdDev)
	c.FittsB = sampleGaussian(rng, c.FittsBMean, c.FittsBStdDev)
	c.PerlinAmplitude = sampleGaussian(rng, c.PerlinAmplitudeMean, c.PerlinAmplitudeStdDev)
	c.ClickNoise = sampleGaussian(rng, c.ClickNoiseMean, c.ClickNoiseStdDev)
	c.KeyHoldMean = sampleGaussian(rng, c.KeyHoldMeanMs, c.KeyHoldStdDevMs)
	c.KeyHoldStdDev = c.KeyHoldStdDevMs

	c.ClickNoise = math.Max(0.0, c.ClickNoise)
	c.PerlinAmplitude = math.Max(0.0, c.PerlinAmplitude)
	c.KeyHoldMean = math.Max(15.0, c.KeyHoldMean)
	if c.MoveSteps < 1 {
		c.MoveSteps = 1
	}
	if c.ClickHoldMaxMs <= c.ClickHoldMinMs {
		c.ClickHoldMaxMs = c.ClickHoldMinMs + 1
	}
}

func sampleGaussian(rng *rand.Rand, mean, stdDev float64) float64 {
	if rng == nil {
		return mean
	}
	return mean + rng.NormFloat64()*stdDev
}
