package protocol

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Autonomous effect header bytes (capture-verified)
const (
	effectOpcode  = 0x00
	effectMarker  = 0x52
	effectSubtype = 0x04

	// effectStopLead is the byte preceding each RGB triple inside the
	// effect payload. Every capture shows 0xff here; whether other values
	// select a per-stop mode is undocumented, so it is treated as a fixed
	// constant until further captures say otherwise.
	effectStopLead = 0xff

	// MaxEffectColors is the most colour stops one effect can carry -
	// the count field is a single byte.
	MaxEffectColors = 255
)

// Effect builder errors
var (
	ErrEmptyEffect   = errors.New("effect has no colour stops")
	ErrTooManyColors = errors.New("effect colour count exceeds one byte")
	ErrInvalidSpeed  = errors.New("effect speed out of range")
)

// RGB is one colour stop in an autonomous effect.
type RGB struct {
	R byte
	G byte
	B byte
}

// BuildAutonomousEffect constructs a self-contained multi-colour effect
// command. Once sent, the light cycles through the stops at the hold rate
// implied by speed without any further host interaction.
//
// Layout (capture-verified, 3-colour sample):
//
//	[0]   0x00       Opcode
//	[1]   0x52       Effect marker
//	[2]   0x04       Subtype
//	[3]   count      Number of colour stops (1-255)
//	[4]   speed      Per-stop hold rate (1-255, see SpeedTable)
//	[5+]  ff r g b   One 4-byte group per stop, lead byte fixed 0xff
//
// speed 0 is rejected (ErrInvalidSpeed): captures never show it and lights
// ignore the command. Zero stops return ErrEmptyEffect, more than 255
// return ErrTooManyColors.
func BuildAutonomousEffect(colors []RGB, speed byte) ([]byte, error) {
	if len(colors) == 0 {
		return nil, ErrEmptyEffect
	}
	if len(colors) > MaxEffectColors {
		return nil, fmt.Errorf("%w: %d stops", ErrTooManyColors, len(colors))
	}
	if speed == 0 {
		return nil, fmt.Errorf("%w: 0", ErrInvalidSpeed)
	}

	pkt := make([]byte, 0, 5+4*len(colors))
	pkt = append(pkt, effectOpcode, effectMarker, effectSubtype, byte(len(colors)), speed)
	for _, c := range colors {
		pkt = append(pkt, effectStopLead, c.R, c.G, c.B)
	}
	return pkt, nil
}

// SpeedPoint is one calibrated (speed byte, hold duration) sample.
type SpeedPoint struct {
	Speed byte          `yaml:"speed"`
	Hold  time.Duration `yaml:"hold"`
}

// SpeedTable maps effect speed bytes to per-stop hold durations by linear
// interpolation between calibrated capture points.
//
// The mapping is empirical and visibly non-linear near the low end, so it is
// carried as data rather than a formula. Config may replace the table with
// newer calibration captures.
type SpeedTable []SpeedPoint

// DefaultSpeedTable holds the calibration points measured from captures:
// speed 0x01 holds each stop ~16ms, 0x80 ~2s. Points in between were timed
// against the vendor app with a stopwatch and are approximate.
var DefaultSpeedTable = SpeedTable{
	{Speed: 0x01, Hold: 16 * time.Millisecond},
	{Speed: 0x08, Hold: 150 * time.Millisecond},
	{Speed: 0x20, Hold: 550 * time.Millisecond},
	{Speed: 0x40, Hold: 1050 * time.Millisecond},
	{Speed: 0x80, Hold: 2 * time.Second},
	{Speed: 0xff, Hold: 3980 * time.Millisecond},
}

// Validate checks that the table is non-empty and strictly increasing in
// both speed and hold duration.
func (t SpeedTable) Validate() error {
	if len(t) == 0 {
		return errors.New("speed table is empty")
	}
	for i := 1; i < len(t); i++ {
		if t[i].Speed <= t[i-1].Speed {
			return fmt.Errorf("speed table not increasing at index %d (0x%02x <= 0x%02x)",
				i, t[i].Speed, t[i-1].Speed)
		}
		if t[i].Hold <= t[i-1].Hold {
			return fmt.Errorf("speed table hold not increasing at index %d", i)
		}
	}
	return nil
}

// HoldDuration returns the approximate per-stop hold duration for a speed
// byte, interpolating linearly between calibration points. Speeds outside
// the table are clamped to its ends.
func (t SpeedTable) HoldDuration(speed byte) time.Duration {
	if len(t) == 0 {
		return 0
	}
	if speed <= t[0].Speed {
		return t[0].Hold
	}
	last := t[len(t)-1]
	if speed >= last.Speed {
		return last.Hold
	}

	// First point with Speed >= speed; i >= 1 after the clamp above
	i := sort.Search(len(t), func(i int) bool { return t[i].Speed >= speed })
	if t[i].Speed == speed {
		return t[i].Hold
	}
	lo, hi := t[i-1], t[i]
	span := float64(hi.Speed - lo.Speed)
	frac := float64(speed-lo.Speed) / span
	return lo.Hold + time.Duration(frac*float64(hi.Hold-lo.Hold))
}
