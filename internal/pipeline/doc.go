// Package pipeline wires the analysis, mapping, codec and sync stages
// into one running music-sync node.
//
// Both roles run the same downstream path: intensity frames are mapped to
// RGB, encoded as a 12-byte colour command, and staged on the drop-old
// sender toward the mesh transport. The roles differ only in where the
// frames come from:
//
//	master:   audio source -> analyzer -> frames -> (local path + UDP broadcast)
//	follower: sync receiver            -> frames -> local path
//
// That duality is the IntensitySource interface; the rest of the pipeline
// does not know or care which side of the sync protocol it is on.
package pipeline
