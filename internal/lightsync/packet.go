package lightsync

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Sync packet framing constants
const (
	magic0          = 'B'
	magic1          = 'R'
	ProtocolVersion = 0x01
	PacketSize      = 28

	// DefaultGroupAddr is the default multicast group and port for sync
	// traffic. Administratively scoped (RFC 2365), stays on the LAN.
	DefaultGroupAddr = "239.255.77.77:7878"
)

// Packet decode errors
var (
	ErrTruncated  = errors.New("sync packet truncated")
	ErrBadMagic   = errors.New("sync packet bad magic")
	ErrBadVersion = errors.New("sync packet unsupported version")
)

// SyncPacket is one serialized analysis frame on the wire. Ephemeral: it
// exists only between serialization on the master and application on a
// follower, and is never persisted.
type SyncPacket struct {
	SenderID  byte
	Seq       uint32
	Timestamp time.Time
	Bass      float64
	Mid       float64
	Treble    float64
}

// Encode serializes the packet into a fresh 28-byte datagram.
func (p *SyncPacket) Encode() []byte {
	buf := make([]byte, PacketSize)
	buf[0] = magic0
	buf[1] = magic1
	buf[2] = ProtocolVersion
	buf[3] = p.SenderID
	binary.BigEndian.PutUint32(buf[4:8], p.Seq)
	binary.BigEndian.PutUint64(buf[8:16], uint64(p.Timestamp.UnixMicro()))
	binary.BigEndian.PutUint32(buf[16:20], math.Float32bits(float32(p.Bass)))
	binary.BigEndian.PutUint32(buf[20:24], math.Float32bits(float32(p.Mid)))
	binary.BigEndian.PutUint32(buf[24:28], math.Float32bits(float32(p.Treble)))
	return buf
}

// DecodeSyncPacket parses a datagram. Extra trailing bytes are rejected:
// nothing else should ever share this port.
func DecodeSyncPacket(buf []byte) (*SyncPacket, error) {
	if len(buf) < PacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(buf))
	}
	if len(buf) > PacketSize {
		return nil, fmt.Errorf("unexpected datagram size %d", len(buf))
	}
	if buf[0] != magic0 || buf[1] != magic1 {
		return nil, fmt.Errorf("%w: 0x%02x%02x", ErrBadMagic, buf[0], buf[1])
	}
	if buf[2] != ProtocolVersion {
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadVersion, buf[2])
	}

	return &SyncPacket{
		SenderID:  buf[3],
		Seq:       binary.BigEndian.Uint32(buf[4:8]),
		Timestamp: time.UnixMicro(int64(binary.BigEndian.Uint64(buf[8:16]))),
		Bass:      float64(math.Float32frombits(binary.BigEndian.Uint32(buf[16:20]))),
		Mid:       float64(math.Float32frombits(binary.BigEndian.Uint32(buf[20:24]))),
		Treble:    float64(math.Float32frombits(binary.BigEndian.Uint32(buf[24:28]))),
	}, nil
}

// String returns a debug representation of the packet.
func (p *SyncPacket) String() string {
	return fmt.Sprintf("SyncPacket{sender=%d, seq=%d, bass=%.2f, mid=%.2f, treble=%.2f}",
		p.SenderID, p.Seq, p.Bass, p.Mid, p.Treble)
}
