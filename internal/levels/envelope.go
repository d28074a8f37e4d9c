package levels

import "math"

// Envelope is an asymmetric exponential smoother for a single band level.
// Rising input is tracked with the attack coefficient, falling input with
// the decay coefficient. Coefficients are per-update one-pole factors in
// [0,1): 0 follows the target instantly, values near 1 respond slowly.
type Envelope struct {
	attack float64
	decay  float64
	value  float64
}

// NewEnvelope creates an envelope with the given attack and decay
// coefficients. Typical music-reactive settings rise fast and fall slow,
// e.g. attack 0.3, decay 0.85 at 10 updates/second.
func NewEnvelope(attack, decay float64) *Envelope {
	return &Envelope{
		attack: clampCoef(attack),
		decay:  clampCoef(decay),
	}
}

// Apply advances the envelope toward target and returns the new value.
func (e *Envelope) Apply(target float64) float64 {
	coef := e.attack
	if target < e.value {
		coef = e.decay
	}
	// One-pole filter: y += (1-coef) * (x - y)
	e.value += (1.0 - coef) * (target - e.value)
	if math.Abs(e.value) < 1e-6 {
		e.value = 0
	}
	return e.value
}

// Value returns the current envelope value without advancing it.
func (e *Envelope) Value() float64 {
	return e.value
}

// Reset snaps the envelope to v.
func (e *Envelope) Reset(v float64) {
	e.value = v
}

func clampCoef(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c >= 1 {
		return 0.999
	}
	return c
}
