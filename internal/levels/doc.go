// Package levels provides the shared intensity-level state used on both
// sides of the sync protocol.
//
// Two small primitives live here:
//
//   - Envelope: an asymmetric one-pole smoother (fast attack, slow decay)
//     that keeps per-band intensities from flickering.
//   - DecayHolder: a bounded-staleness holder for a bass/mid/treble triple.
//     When its input goes quiet - a stalled microphone on the master, a lost
//     master on a follower - the held levels decay toward zero instead of
//     freezing on a stale bright colour.
//
// The analyzer and the sync receiver share these so local silence and lost
// sync degrade identically.
package levels
