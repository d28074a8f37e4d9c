// Package lightsync distributes analysis frames from the master node to
// follower nodes over UDP.
//
// One node - the master - has the microphone and runs the spectral
// analyzer. Followers have lights but no audio path. On every analysis
// frame the master serializes a small fixed binary sync packet and sends
// it to a multicast (or directed broadcast) address, best-effort: no
// acknowledgements, no retries. A lost packet is superseded by the next
// one within ~100ms, so loss costs one frame of freshness and nothing
// else.
//
// # Wire Format
//
// 28-byte datagram, big-endian:
//
//	[0-1]   "BR"       Magic
//	[2]     0x01       Protocol version
//	[3]     senderID   Identifies the master (followers ignore self traffic)
//	[4-7]   sequence   uint32, monotonically increasing per sender
//	[8-15]  timestamp  int64 unix microseconds
//	[16-19] bass       float32 in [0,1]
//	[20-23] mid        float32 in [0,1]
//	[24-27] treble     float32 in [0,1]
//
// # Ordering and Staleness
//
// The receiver keeps only the last accepted sequence number. A packet with
// sequence <= lastSequence is dropped silently - duplicates and reordered
// datagrams must never regress the lights to an older frame. There is no
// reorder buffer: the system optimizes for freshness over completeness.
//
// When no packet arrives within the silence timeout the receiver decays
// its last-known levels toward zero, mirroring the analyzer's local
// silence behaviour, so a lost master fades followers out instead of
// freezing them on a stale bright colour.
package lightsync
