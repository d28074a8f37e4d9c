package audio

import "math"

// hannWindow returns Hann coefficients for an n-point transform.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// fftMagnitudes computes magnitude bins 0..n/2 of the windowed input using
// an iterative radix-2 FFT. len(samples) must be a power of two and equal
// len(window). The scratch slices re and im must be len(samples); out must
// be len(samples)/2+1. No allocations - the analyzer reuses its buffers at
// frame cadence.
func fftMagnitudes(samples, window, re, im, out []float64) {
	n := len(samples)
	for i := 0; i < n; i++ {
		re[i] = samples[i] * window[i]
		im[i] = 0
	}

	// Bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	// Butterflies
	for length := 2; length <= n; length <<= 1 {
		ang := -2.0 * math.Pi / float64(length)
		wr, wi := math.Cos(ang), math.Sin(ang)
		for start := 0; start < n; start += length {
			cr, ci := 1.0, 0.0
			half := length / 2
			for k := 0; k < half; k++ {
				i, j := start+k, start+k+half
				tr := re[j]*cr - im[j]*ci
				ti := re[j]*ci + im[j]*cr
				re[j] = re[i] - tr
				im[j] = im[i] - ti
				re[i] += tr
				im[i] += ti
				cr, ci = cr*wr-ci*wi, cr*wi+ci*wr
			}
		}
	}

	// Magnitudes, normalized by transform size
	scale := 2.0 / float64(n)
	for k := 0; k <= n/2; k++ {
		out[k] = math.Hypot(re[k], im[k]) * scale
	}
}
