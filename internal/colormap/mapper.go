package colormap

import (
	"fmt"
	"math"
)

// Config tunes the intensity-to-colour mapping. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// Per-channel linear gain applied before gamma
	RedGain   float64 `yaml:"red_gain"`
	GreenGain float64 `yaml:"green_gain"`
	BlueGain  float64 `yaml:"blue_gain"`

	// Gamma exponent applied to each channel (1.0 = linear). Values below
	// 1 lift quiet passages, values above 1 emphasize peaks.
	Gamma float64 `yaml:"gamma"`

	// Global brightness scale in [0,1] applied after gamma
	Brightness float64 `yaml:"brightness"`
}

// DefaultConfig is the identity mapping: unity gains, linear gamma, full
// brightness.
func DefaultConfig() Config {
	return Config{
		RedGain:    1.0,
		GreenGain:  1.0,
		BlueGain:   1.0,
		Gamma:      1.0,
		Brightness: 1.0,
	}
}

// Validate rejects configs that would invert or blank the mapping.
func (c Config) Validate() error {
	if c.RedGain < 0 || c.GreenGain < 0 || c.BlueGain < 0 {
		return fmt.Errorf("channel gains must be non-negative")
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %v", c.Gamma)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness must be in [0,1], got %v", c.Brightness)
	}
	return nil
}

// Mapper maps intensity triples to RGB bytes. Stateless after creation;
// safe for concurrent use.
type Mapper struct {
	cfg Config
}

// New creates a Mapper, validating the config.
func New(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("colormap config: %w", err)
	}
	return &Mapper{cfg: cfg}, nil
}

// Map converts a bass/mid/treble triple in [0,1] to RGB bytes.
// Out-of-range inputs are clamped, not rejected: upstream smoothing already
// bounds them and a transient overshoot must not kill the frame cadence.
func (m *Mapper) Map(bass, mid, treble float64) (r, g, b byte) {
	r = m.channel(bass, m.cfg.RedGain)
	g = m.channel(mid, m.cfg.GreenGain)
	b = m.channel(treble, m.cfg.BlueGain)
	return r, g, b
}

func (m *Mapper) channel(level, gain float64) byte {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	v := level * gain
	if v > 1 {
		v = 1
	}
	if m.cfg.Gamma != 1.0 {
		v = math.Pow(v, m.cfg.Gamma)
	}
	v *= m.cfg.Brightness
	scaled := math.Round(v * 255)
	if scaled > 255 {
		scaled = 255
	}
	if scaled < 0 {
		scaled = 0
	}
	return byte(scaled)
}
