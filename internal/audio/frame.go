package audio

import "time"

// Frame is one analysis cycle's intensity triple. Immutable once emitted.
type Frame struct {
	Seq       uint32
	Timestamp time.Time
	Bass      float64 // [0,1]
	Mid       float64 // [0,1]
	Treble    float64 // [0,1]
}
