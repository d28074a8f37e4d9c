// Package audio turns a raw PCM stream into per-frame bass/mid/treble
// intensity levels.
//
// The Analyzer keeps a fixed 256-sample ring buffer fed by the audio source.
// Sample ingestion is the hot path and never waits on analysis: the writer
// only appends to the ring, and each analysis pass copies a stable snapshot
// of the latest window before transforming it.
//
// On a fixed cadence (default 10 frames/second) the analyzer Hann-windows
// the snapshot, computes magnitude bins with a radix-2 FFT, sums the bins
// into three bands (bass 0-500 Hz, mid 500-2000 Hz, treble 2-8 kHz),
// normalizes by a slowly decaying running peak, and smooths each band with
// a fast-attack/slow-decay envelope so the lights pulse rather than flicker.
//
// If the source stops delivering samples the emitted levels decay toward
// zero instead of holding, so a failed microphone path fades the lights out
// rather than freezing them on a stale bright colour.
package audio
