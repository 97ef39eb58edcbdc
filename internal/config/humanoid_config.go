// File: internal/config/humanoid_config.go
// HumanoidConfig holds the tunable parameters of the input simulation used
// while filling fields. The full model lives in the humanoid package; only the
// knobs worth exposing in a config file are listed here.
package config

// HumanoidConfig is the config-file view of the humanoid input model.
type HumanoidConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	ClickHoldMinMs int     `mapstructure:"click_hold_min_ms" yaml:"click_hold_min_ms"`
	ClickHoldMaxMs int     `mapstructure:"click_hold_max_ms" yaml:"click_hold_max_ms"`
	KeyHoldMeanMs  float64 `mapstructure:"key_hold_mean_ms" yaml:"key_hold_mean_ms"`
}
