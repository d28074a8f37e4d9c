package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/levels"
	"github.com/lumenjack/brsync/internal/logging"
)

// Analyzer state machine. The analyzer never terminates on its own; it
// cycles Filling -> Ready -> Emitting -> Filling while the source is live.
type State int

const (
	StateIdle     State = iota // No samples seen yet
	StateFilling               // Ring not yet full since last emission
	StateReady                 // A complete window is available
	StateEmitting              // Transform + emission in progress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFilling:
		return "filling"
	case StateReady:
		return "ready"
	case StateEmitting:
		return "emitting"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config holds the analyzer tuning parameters.
type Config struct {
	SampleRate int // PCM sample rate in Hz
	WindowSize int // Transform size in samples; power of two
	FPS        int // Emission cadence, frames per second (5-30)

	// Band edges in Hz. Bands are disjoint:
	// bass [0, BassMaxHz), mid [BassMaxHz, MidMaxHz), treble [MidMaxHz, TrebleMaxHz)
	BassMaxHz   float64
	MidMaxHz    float64
	TrebleMaxHz float64

	// Envelope coefficients per emission; fast rise, slower fall
	Attack float64
	Decay  float64

	// Running peak estimate decay per emission (slightly under 1.0 so the
	// normalization adapts when the music gets quieter)
	PeakDecay float64

	// Silence handling: after SilenceTimeout without fresh samples the
	// levels fade toward zero with the given half-life
	SilenceTimeout  time.Duration
	SilenceHalfLife time.Duration
}

// DefaultConfig returns the reference tuning: 22.05 kHz, 256-sample window,
// 10 fps.
func DefaultConfig() Config {
	return Config{
		SampleRate:      22050,
		WindowSize:      256,
		FPS:             10,
		BassMaxHz:       500,
		MidMaxHz:        2000,
		TrebleMaxHz:     8000,
		Attack:          0.3,
		Decay:           0.85,
		PeakDecay:       0.995,
		SilenceTimeout:  500 * time.Millisecond,
		SilenceHalfLife: 300 * time.Millisecond,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.WindowSize < 2 || c.WindowSize&(c.WindowSize-1) != 0 {
		return fmt.Errorf("window size must be a power of two >= 2, got %d", c.WindowSize)
	}
	if c.FPS < 5 || c.FPS > 30 {
		return fmt.Errorf("fps must be in [5,30], got %d", c.FPS)
	}
	if !(c.BassMaxHz > 0 && c.MidMaxHz > c.BassMaxHz && c.TrebleMaxHz > c.MidMaxHz) {
		return fmt.Errorf("band edges must be increasing: %v/%v/%v",
			c.BassMaxHz, c.MidMaxHz, c.TrebleMaxHz)
	}
	if c.TrebleMaxHz > float64(c.SampleRate)/2 {
		return fmt.Errorf("treble edge %.0f Hz above Nyquist for %d Hz",
			c.TrebleMaxHz, c.SampleRate)
	}
	return nil
}

// Analyzer converts a PCM sample stream into smoothed band intensity
// frames. Create with New, feed with WriteSamples (or WritePCM16), run the
// emission loop with Run, and consume Frames.
type Analyzer struct {
	cfg  Config
	ring *ring

	// Scratch buffers reused every emission
	snap   []float64
	window []float64
	re, im []float64
	mags   []float64

	// Band bin ranges (inclusive start, exclusive end)
	bassEnd, midEnd, trebleEnd int

	envs   [3]*levels.Envelope
	peak   float64
	holder *levels.DecayHolder

	state       atomic.Int32
	seq         uint32
	lastWritten uint64

	frames chan Frame
}

// New creates an Analyzer with the given config.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("analyzer config: %w", err)
	}
	if cfg.PeakDecay <= 0 || cfg.PeakDecay > 1 {
		cfg.PeakDecay = DefaultConfig().PeakDecay
	}

	n := cfg.WindowSize
	binWidth := float64(cfg.SampleRate) / float64(n)
	a := &Analyzer{
		cfg:       cfg,
		ring:      newRing(n),
		snap:      make([]float64, n),
		window:    hannWindow(n),
		re:        make([]float64, n),
		im:        make([]float64, n),
		mags:      make([]float64, n/2+1),
		bassEnd:   int(cfg.BassMaxHz / binWidth),
		midEnd:    int(cfg.MidMaxHz / binWidth),
		trebleEnd: int(cfg.TrebleMaxHz / binWidth),
		holder:    levels.NewDecayHolder(cfg.SilenceTimeout, cfg.SilenceHalfLife),
		frames:    make(chan Frame, 1),
	}
	if a.trebleEnd > n/2 {
		a.trebleEnd = n / 2
	}
	for i := range a.envs {
		a.envs[i] = levels.NewEnvelope(cfg.Attack, cfg.Decay)
	}
	return a, nil
}

// WriteSamples feeds normalized float samples in [-1,1]. This is the audio
// hot path: it appends to the ring and returns, never waiting on analysis.
func (a *Analyzer) WriteSamples(samples []float64) {
	if len(samples) == 0 {
		return
	}
	a.ring.write(samples)
}

// WritePCM16 feeds little-endian 16-bit mono PCM bytes. A trailing odd
// byte is ignored.
func (a *Analyzer) WritePCM16(pcm []byte) {
	n := len(pcm) / 2
	if n == 0 {
		return
	}
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float64(v) / 32768.0
	}
	a.WriteSamples(samples)
}

// Frames returns the emission channel. The channel is never closed; stop
// consuming when Run's context ends.
func (a *Analyzer) Frames() <-chan Frame {
	return a.frames
}

// State reports the current analyzer state (for logging and the TUI).
func (a *Analyzer) State() State {
	return State(a.state.Load())
}

// Run drives the fixed-cadence emission loop until ctx is cancelled.
// Each tick emits exactly one frame: from a fresh window when enough new
// samples arrived, otherwise from the previous levels (decaying toward
// zero once the source has been silent past the timeout). The loop never
// blocks waiting for audio.
func (a *Analyzer) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(a.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info("Analyzer started",
		zap.Int("sample_rate", a.cfg.SampleRate),
		zap.Int("window", a.cfg.WindowSize),
		zap.Int("fps", a.cfg.FPS),
	)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Analyzer stopped", zap.Uint32("frames_emitted", a.seq))
			return nil
		case now := <-ticker.C:
			a.emit(now)
		}
	}
}

// emit performs one analysis/emission cycle.
func (a *Analyzer) emit(now time.Time) {
	written := a.ring.snapshot(a.snap)

	fullWindow := written >= uint64(a.cfg.WindowSize)
	fresh := written > a.lastWritten
	switch {
	case written == 0:
		a.state.Store(int32(StateIdle))
	case !fullWindow:
		a.state.Store(int32(StateFilling))
	case fresh:
		a.state.Store(int32(StateEmitting))
		a.lastWritten = written
		a.analyzeWindow(now)
	default:
		a.state.Store(int32(StateReady))
	}
	// Not enough new samples: reuse the held levels. The holder applies
	// silence decay on read, so a stalled source fades out on its own.

	target := a.holder.At(now)
	frame := Frame{
		Seq:       a.seq + 1,
		Timestamp: now,
		Bass:      a.envs[0].Apply(target.Bass),
		Mid:       a.envs[1].Apply(target.Mid),
		Treble:    a.envs[2].Apply(target.Treble),
	}
	a.seq++

	// Drop-old delivery: a late consumer gets the newest frame, never a
	// backlog of stale ones.
	select {
	case a.frames <- frame:
	default:
		select {
		case <-a.frames:
		default:
		}
		select {
		case a.frames <- frame:
		default:
		}
	}

	if fullWindow && fresh {
		a.state.Store(int32(StateFilling))
	}
}

// analyzeWindow transforms the current snapshot into normalized band
// levels and stores them in the holder.
func (a *Analyzer) analyzeWindow(now time.Time) {
	fftMagnitudes(a.snap, a.window, a.re, a.im, a.mags)

	raw := [3]float64{
		bandAverage(a.mags, 1, a.bassEnd),
		bandAverage(a.mags, a.bassEnd, a.midEnd),
		bandAverage(a.mags, a.midEnd, a.trebleEnd),
	}

	// Single running peak shared by all three bands: it decays slowly so
	// normalization adapts when the programme gets quieter, and it is
	// shared so relative band dominance survives - a per-band peak would
	// let a band's own leakage read as full scale.
	a.peak *= a.cfg.PeakDecay
	for _, v := range raw {
		if v > a.peak {
			a.peak = v
		}
	}

	var t levels.Triple
	if a.peak > 1e-9 {
		norm := [3]*float64{&t.Bass, &t.Mid, &t.Treble}
		for i, v := range raw {
			n := v / a.peak
			if n > 1 {
				n = 1
			}
			*norm[i] = n
		}
	}
	a.holder.Update(t, now)
}

// bandAverage averages magnitude bins [start,end). Bin 0 (DC) is excluded
// by the caller.
func bandAverage(mags []float64, start, end int) float64 {
	if start < 1 {
		start = 1
	}
	if end > len(mags) {
		end = len(mags)
	}
	if end <= start {
		return 0
	}
	var sum float64
	for i := start; i < end; i++ {
		sum += mags[i]
	}
	return sum / float64(end-start)
}
