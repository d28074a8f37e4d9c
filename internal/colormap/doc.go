// Package colormap converts band intensity triples into RGB channel bytes.
//
// The mapping is a pure function of the input triple and the mapper config:
// bass drives red, mid drives green, treble drives blue. Each channel gets
// an optional gain, a shared gamma exponent, and a global brightness scale,
// then clamps to [0,255]. No hidden state - the same triple always maps to
// the same bytes, which keeps the pipeline testable independently of the
// analyzer's filtering.
package colormap
