package levels

import (
	"math"
	"sync"
	"time"
)

// Triple is one bass/mid/treble intensity triple, each in [0,1].
type Triple struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// DecayHolder holds the most recent intensity triple with bounded staleness.
// While updates keep arriving the held value passes through unchanged; once
// updates stop for longer than the silence timeout, reads decay the value
// toward zero at the configured half-life.
//
// Safe for concurrent use: the producer calls Update, consumers call At.
type DecayHolder struct {
	mu             sync.Mutex
	value          Triple
	updatedAt      time.Time
	silenceTimeout time.Duration
	halfLife       time.Duration
}

// NewDecayHolder creates a holder. silenceTimeout is how long the value is
// trusted unchanged; halfLife controls how fast it fades afterwards.
func NewDecayHolder(silenceTimeout, halfLife time.Duration) *DecayHolder {
	return &DecayHolder{
		silenceTimeout: silenceTimeout,
		halfLife:       halfLife,
	}
}

// Update stores a fresh triple and restamps it.
func (h *DecayHolder) Update(t Triple, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = t
	h.updatedAt = now
}

// At returns the held triple as of now, applying silence decay when the
// last update is older than the silence timeout. The stored value is not
// mutated; repeated reads at the same instant return the same result.
func (h *DecayHolder) At(now time.Time) Triple {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.updatedAt.IsZero() {
		return Triple{}
	}
	stale := now.Sub(h.updatedAt) - h.silenceTimeout
	if stale <= 0 {
		return h.value
	}
	if h.halfLife <= 0 {
		return Triple{}
	}

	// Exponential fade: halve once per half-life past the timeout
	factor := math.Exp2(-float64(stale) / float64(h.halfLife))
	return Triple{
		Bass:   floorSmall(h.value.Bass * factor),
		Mid:    floorSmall(h.value.Mid * factor),
		Treble: floorSmall(h.value.Treble * factor),
	}
}

// LastUpdate returns when the holder last saw a fresh value.
func (h *DecayHolder) LastUpdate() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updatedAt
}

func floorSmall(v float64) float64 {
	if v < 1e-3 {
		return 0
	}
	return v
}
