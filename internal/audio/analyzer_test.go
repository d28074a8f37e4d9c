package audio

import (
	"math"
	"testing"
	"time"
)

// feedSine writes n samples of a pure tone into the analyzer.
func feedSine(a *Analyzer, freqHz float64, n int) {
	samples := make([]float64, n)
	step := 2 * math.Pi * freqHz / float64(a.cfg.SampleRate)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(step*float64(i))
	}
	a.WriteSamples(samples)
}

func TestAnalyzerBassSineDominates(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// 120 Hz sits firmly in the bass band. Drive several windows through
	// the analyzer to reach envelope steady state.
	now := time.Now()
	var last Frame
	for i := 0; i < 30; i++ {
		feedSine(a, 120, a.cfg.WindowSize)
		a.emit(now)
		last = <-a.frames
		now = now.Add(100 * time.Millisecond)
	}

	if last.Bass <= last.Mid || last.Bass <= last.Treble {
		t.Errorf("bass sine: levels bass=%.3f mid=%.3f treble=%.3f, want bass dominant",
			last.Bass, last.Mid, last.Treble)
	}
	if last.Bass < 0.5 {
		t.Errorf("bass level %.3f, want >= 0.5 at steady state", last.Bass)
	}
}

func TestAnalyzerTrebleSineDominates(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	var last Frame
	for i := 0; i < 30; i++ {
		feedSine(a, 5000, a.cfg.WindowSize)
		a.emit(now)
		last = <-a.frames
		now = now.Add(100 * time.Millisecond)
	}

	if last.Treble <= last.Bass || last.Treble <= last.Mid {
		t.Errorf("treble sine: levels bass=%.3f mid=%.3f treble=%.3f, want treble dominant",
			last.Bass, last.Mid, last.Treble)
	}
}

func TestAnalyzerSingleToneDoesNotSaturateOtherBands(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// All bands are normalized against one shared peak. With a pure bass
	// tone, the mid and treble bands see only window leakage; if each
	// band tracked its own peak, that leakage would read as full scale
	// and every band would sit at 1.0.
	now := time.Now()
	var last Frame
	for i := 0; i < 30; i++ {
		feedSine(a, 120, a.cfg.WindowSize)
		a.emit(now)
		last = <-a.frames
		now = now.Add(100 * time.Millisecond)
	}

	if last.Mid > 0.5 {
		t.Errorf("mid = %.3f under pure bass input, want well below full scale", last.Mid)
	}
	if last.Treble > 0.5 {
		t.Errorf("treble = %.3f under pure bass input, want well below full scale", last.Treble)
	}
}

func TestAnalyzerSilenceDecaysToZero(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	for i := 0; i < 20; i++ {
		feedSine(a, 120, a.cfg.WindowSize)
		a.emit(now)
		<-a.frames
		now = now.Add(100 * time.Millisecond)
	}

	// Stop feeding. Emissions continue at cadence; past the silence
	// timeout the levels must fall monotonically toward zero.
	prev := math.Inf(1)
	var last Frame
	for i := 0; i < 60; i++ {
		now = now.Add(100 * time.Millisecond)
		a.emit(now)
		last = <-a.frames
		if last.Bass > prev+1e-9 {
			t.Fatalf("bass rose during silence: %.4f -> %.4f", prev, last.Bass)
		}
		prev = last.Bass
	}

	if last.Bass > 0.01 || last.Mid > 0.01 || last.Treble > 0.01 {
		t.Errorf("after silence: levels bass=%.4f mid=%.4f treble=%.4f, want near zero",
			last.Bass, last.Mid, last.Treble)
	}
}

func TestAnalyzerNeverStallsWithoutSamples(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// No samples at all: every tick still emits a frame
	now := time.Now()
	for i := 1; i <= 5; i++ {
		a.emit(now)
		select {
		case f := <-a.frames:
			if f.Seq != uint32(i) {
				t.Errorf("frame seq = %d, want %d", f.Seq, i)
			}
			if f.Bass != 0 || f.Mid != 0 || f.Treble != 0 {
				t.Errorf("idle frame has non-zero levels: %+v", f)
			}
		default:
			t.Fatal("no frame emitted on tick without samples")
		}
		now = now.Add(100 * time.Millisecond)
	}

	if a.State() != StateIdle {
		t.Errorf("state = %v, want idle", a.State())
	}
}

func TestAnalyzerStateProgression(t *testing.T) {
	cfg := DefaultConfig()
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()

	// Partial window: filling
	feedSine(a, 120, cfg.WindowSize/4)
	a.emit(now)
	<-a.frames
	if a.State() != StateFilling {
		t.Errorf("after partial window: state = %v, want filling", a.State())
	}

	// Complete the window: a full analysis pass ends back in filling
	feedSine(a, 120, cfg.WindowSize)
	a.emit(now.Add(100 * time.Millisecond))
	<-a.frames
	if a.State() != StateFilling {
		t.Errorf("after full window: state = %v, want filling", a.State())
	}

	// No new samples: window still complete, nothing fresh to transform
	a.emit(now.Add(200 * time.Millisecond))
	<-a.frames
	if a.State() != StateReady {
		t.Errorf("without fresh samples: state = %v, want ready", a.State())
	}
}

func TestAnalyzerDropOldDelivery(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Nobody consuming: emit twice, only the newest frame must remain
	now := time.Now()
	a.emit(now)
	a.emit(now.Add(100 * time.Millisecond))

	f := <-a.frames
	if f.Seq != 2 {
		t.Errorf("got frame seq %d, want newest (2)", f.Seq)
	}
	select {
	case f := <-a.frames:
		t.Errorf("unexpected extra frame seq %d", f.Seq)
	default:
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "window not power of two", mutate: func(c *Config) { c.WindowSize = 300 }},
		{name: "fps too low", mutate: func(c *Config) { c.FPS = 2 }},
		{name: "fps too high", mutate: func(c *Config) { c.FPS = 60 }},
		{name: "band edges out of order", mutate: func(c *Config) { c.MidMaxHz = 100 }},
		{name: "treble above nyquist", mutate: func(c *Config) { c.TrebleMaxHz = 20000 }},
		{name: "zero sample rate", mutate: func(c *Config) { c.SampleRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected config error, got nil")
			}
		})
	}
}

func TestWritePCM16(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// 0x7fff -> ~1.0, 0x8000 -> -1.0
	a.WritePCM16([]byte{0xff, 0x7f, 0x00, 0x80})
	snap := make([]float64, a.cfg.WindowSize)
	a.ring.snapshot(snap)

	got := snap[len(snap)-2:]
	if math.Abs(got[0]-0.99997) > 1e-3 {
		t.Errorf("positive full scale = %f, want ~1.0", got[0])
	}
	if math.Abs(got[1]+1.0) > 1e-9 {
		t.Errorf("negative full scale = %f, want -1.0", got[1])
	}
}

func TestFFTPicksCorrectBin(t *testing.T) {
	const n = 256
	const sampleRate = 22050.0
	window := hannWindow(n)
	re := make([]float64, n)
	im := make([]float64, n)
	out := make([]float64, n/2+1)

	// Exact bin frequency so leakage is minimal
	bin := 12
	freq := float64(bin) * sampleRate / n
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	fftMagnitudes(samples, window, re, im, out)

	peak := 0
	for k := 1; k < len(out); k++ {
		if out[k] > out[peak] {
			peak = k
		}
	}
	if peak != bin {
		t.Errorf("peak bin = %d, want %d", peak, bin)
	}
}
