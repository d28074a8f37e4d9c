package lightsync

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/logging"
)

// Broadcaster sends one sync packet per analysis frame to the group
// address. Fire-and-forget: send errors are logged and dropped, because
// the next frame supersedes the lost one within a cadence interval.
type Broadcaster struct {
	senderID byte
	conn     *net.UDPConn
	dest     *net.UDPAddr
	seq      atomic.Uint32
}

// NewBroadcaster opens a UDP socket toward the group address.
// groupAddr is "host:port"; a multicast group (the default) or a unicast
// address both work. Subnet broadcast addresses are not supported - the
// socket does not set SO_BROADCAST.
func NewBroadcaster(groupAddr string, senderID byte) (*Broadcaster, error) {
	dest, err := net.ResolveUDPAddr("udp4", groupAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve sync group %q: %w", groupAddr, err)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open sync socket: %w", err)
	}

	logging.Info("Sync broadcaster ready",
		zap.String("group", dest.String()),
		zap.Uint8("sender_id", senderID),
	)
	return &Broadcaster{senderID: senderID, conn: conn, dest: dest}, nil
}

// Broadcast serializes the frame's levels and sends them. The broadcaster
// assigns its own sequence numbers and stamps send time, so a restarted
// analyzer never rewinds the wire sequence.
func (b *Broadcaster) Broadcast(frame audio.Frame) {
	pkt := &SyncPacket{
		SenderID:  b.senderID,
		Seq:       b.seq.Add(1),
		Timestamp: time.Now(),
		Bass:      frame.Bass,
		Mid:       frame.Mid,
		Treble:    frame.Treble,
	}

	if _, err := b.conn.WriteToUDP(pkt.Encode(), b.dest); err != nil {
		// Loss is expected on this path; log and move on
		logging.Warn("Sync send failed", zap.Error(err))
		return
	}
	logging.LogSyncFrame("broadcast", pkt.SenderID, pkt.Seq, pkt.Bass, pkt.Mid, pkt.Treble)
}

// Close releases the socket.
func (b *Broadcaster) Close() error {
	return b.conn.Close()
}
