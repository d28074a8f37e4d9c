package audio

import (
	"context"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/logging"
)

// Source delivers PCM samples into an Analyzer. Implementations run until
// the context is cancelled or the underlying stream ends.
//
// The actual capture device (ALSA, CoreAudio, ...) is an external
// collaborator; the pipeline only needs something that can pump samples.
type Source interface {
	Run(ctx context.Context, sink *Analyzer) error
}

// PCMStreamSource reads raw little-endian 16-bit mono PCM from an
// io.Reader - typically stdin fed by an external capture tool:
//
//	arecord -f S16_LE -r 22050 -c 1 | brsync run --role master
type PCMStreamSource struct {
	R          io.Reader
	SampleRate int
	// ChunkMS is how much audio to read per loop iteration (default 20ms)
	ChunkMS int
}

// Run pumps the reader into the analyzer until EOF or cancellation.
// EOF is not an error: the analyzer's silence decay takes over and the
// lights fade out.
func (s *PCMStreamSource) Run(ctx context.Context, sink *Analyzer) error {
	chunkMS := s.ChunkMS
	if chunkMS <= 0 {
		chunkMS = 20
	}
	chunk := s.SampleRate * chunkMS / 1000 * 2 // bytes per chunk, 2 per sample
	buf := make([]byte, chunk)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := s.R.Read(buf)
		if n > 0 {
			sink.WritePCM16(buf[:n])
		}
		if err == io.EOF {
			logging.Info("PCM stream ended")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Oscillator generates a pure sine tone. Useful for calibration and for
// exercising the pipeline without a microphone
// (brsync run --source sine --sine-freq 120).
type Oscillator struct {
	SampleRate int
	FreqHz     float64
	Amplitude  float64
}

// Run generates samples in 20ms chunks at real-time rate.
func (o *Oscillator) Run(ctx context.Context, sink *Analyzer) error {
	amp := o.Amplitude
	if amp <= 0 || amp > 1 {
		amp = 0.8
	}
	const chunkMS = 20
	chunk := o.SampleRate * chunkMS / 1000
	samples := make([]float64, chunk)
	phase := 0.0
	step := 2 * math.Pi * o.FreqHz / float64(o.SampleRate)

	ticker := time.NewTicker(chunkMS * time.Millisecond)
	defer ticker.Stop()

	logging.Info("Sine source started",
		zap.Float64("freq_hz", o.FreqHz),
		zap.Int("sample_rate", o.SampleRate),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for i := range samples {
				samples[i] = amp * math.Sin(phase)
				phase += step
			}
			if phase > 2*math.Pi {
				phase -= 2 * math.Pi * math.Floor(phase/(2*math.Pi))
			}
			sink.WriteSamples(samples)
		}
	}
}
