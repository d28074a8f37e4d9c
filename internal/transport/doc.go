// Package transport is the hand-off boundary between the command pipeline
// and the BLE mesh.
//
// The actual GATT write mechanics live outside this codebase; anything
// that can push raw bytes toward a target satisfies Transport. What this
// package does own is the outbound scheduling policy: commands leave
// through a single-slot drop-old sender, so at most one command is in
// flight and a newer colour frame always replaces an unsent older one.
// Bounded staleness, never an unbounded backlog.
package transport
