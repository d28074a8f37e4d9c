package lightsync

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/levels"
	"github.com/lumenjack/brsync/internal/logging"
)

// ReceiverConfig tunes a follower's sync receiver.
type ReceiverConfig struct {
	GroupAddr string // multicast group or listen address, "host:port"

	// FPS drives decay emissions while the master is silent; matches the
	// master's cadence (default 10)
	FPS int

	// SilenceTimeout is how long the last frame is trusted without new
	// packets; a few multiples of the expected interframe gap
	SilenceTimeout  time.Duration
	SilenceHalfLife time.Duration
}

// DefaultReceiverConfig matches the reference 10 fps master.
func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{
		GroupAddr:       DefaultGroupAddr,
		FPS:             10,
		SilenceTimeout:  400 * time.Millisecond, // 4x the 100ms interframe gap
		SilenceHalfLife: 300 * time.Millisecond,
	}
}

// Receiver consumes sync packets on a follower node and turns them into
// local analysis frames. It owns only the last-accepted sequence number
// and the bounded-staleness level holder; discarded packets are never
// stored.
type Receiver struct {
	cfg    ReceiverConfig
	conn   *net.UDPConn
	holder *levels.DecayHolder

	mu         sync.Mutex
	lastSeq    uint32
	seen       bool // true once any packet was accepted
	emitSeq    uint32
	lastAccept time.Time

	duplicates atomic.Uint64
	stale      atomic.Uint64

	frames chan audio.Frame
}

// NewReceiver joins the sync group and prepares the receiver.
func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	if cfg.FPS <= 0 {
		cfg.FPS = 10
	}
	addr, err := net.ResolveUDPAddr("udp4", cfg.GroupAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve sync group %q: %w", cfg.GroupAddr, err)
	}

	var conn *net.UDPConn
	if addr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp4", nil, addr)
	} else {
		conn, err = net.ListenUDP("udp4", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("join sync group %q: %w", cfg.GroupAddr, err)
	}

	logging.Info("Sync receiver listening", zap.String("group", addr.String()))
	return &Receiver{
		cfg:    cfg,
		conn:   conn,
		holder: levels.NewDecayHolder(cfg.SilenceTimeout, cfg.SilenceHalfLife),
		frames: make(chan audio.Frame, 1),
	}, nil
}

// Frames returns the local frame channel. Frames arrive immediately on
// packet accept, and at cadence (decaying) while the master is silent.
func (r *Receiver) Frames() <-chan audio.Frame {
	return r.frames
}

// Stats returns the duplicate/stale drop counters.
func (r *Receiver) Stats() (duplicates, stale uint64) {
	return r.duplicates.Load(), r.stale.Load()
}

// Run reads packets and drives silence decay until ctx is cancelled.
func (r *Receiver) Run(ctx context.Context) error {
	defer r.conn.Close()

	go r.readLoop(ctx)

	interval := time.Second / time.Duration(r.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dup, stale := r.Stats()
			logging.Info("Sync receiver stopped",
				zap.Uint64("duplicates_dropped", dup),
				zap.Uint64("stale_dropped", stale),
			)
			return nil
		case now := <-ticker.C:
			// Packet-driven while the master is live; the ticker only
			// emits once packets stop, to decay the lights to dark
			r.mu.Lock()
			lastAccept := r.lastAccept
			r.mu.Unlock()
			if now.Sub(lastAccept) < interval {
				continue
			}
			t := r.holder.At(now)
			r.emit(audio.Frame{
				Timestamp: now,
				Bass:      t.Bass,
				Mid:       t.Mid,
				Treble:    t.Treble,
			})
		}
	}
}

// readLoop blocks on the socket; closing the connection (deferred in Run)
// unblocks it on shutdown.
func (r *Receiver) readLoop(ctx context.Context) {
	buf := make([]byte, 64)
	for {
		n, remote, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			logging.Warn("Sync read failed", zap.Error(err))
			return
		}
		logging.LogUDPDatagram("recv", remote.String(), buf[:n])

		pkt, err := DecodeSyncPacket(buf[:n])
		if err != nil {
			logging.Warn("Sync packet rejected", zap.Error(err))
			continue
		}
		r.Accept(pkt, time.Now())
	}
}

// Accept applies the sequence filter and, when the packet is fresh, feeds
// it into the local frame path. Duplicates and reordered packets are
// dropped silently - loss is expected, not exceptional. Exported for tests
// and for transports other than the built-in UDP socket.
func (r *Receiver) Accept(pkt *SyncPacket, now time.Time) bool {
	r.mu.Lock()
	if r.seen && pkt.Seq <= r.lastSeq {
		duplicate := pkt.Seq == r.lastSeq
		r.mu.Unlock()
		if duplicate {
			r.duplicates.Add(1)
		} else {
			r.stale.Add(1)
		}
		logging.LogSyncFrame("dropped", pkt.SenderID, pkt.Seq, pkt.Bass, pkt.Mid, pkt.Treble)
		return false
	}

	r.seen = true
	r.lastSeq = pkt.Seq
	r.lastAccept = now
	r.mu.Unlock()
	r.holder.Update(levels.Triple{Bass: pkt.Bass, Mid: pkt.Mid, Treble: pkt.Treble}, now)

	logging.LogSyncFrame("accepted", pkt.SenderID, pkt.Seq, pkt.Bass, pkt.Mid, pkt.Treble)
	r.emit(audio.Frame{
		Seq:       pkt.Seq,
		Timestamp: pkt.Timestamp,
		Bass:      pkt.Bass,
		Mid:       pkt.Mid,
		Treble:    pkt.Treble,
	})
	return true
}

// emit delivers a frame with drop-old semantics: a slow consumer sees the
// newest frame, never a backlog.
func (r *Receiver) emit(f audio.Frame) {
	r.mu.Lock()
	r.emitSeq++
	emitSeq := r.emitSeq
	r.mu.Unlock()
	if f.Seq == 0 {
		f.Seq = emitSeq
	}
	select {
	case r.frames <- f:
	default:
		select {
		case <-r.frames:
		default:
		}
		select {
		case r.frames <- f:
		default:
		}
	}
}
