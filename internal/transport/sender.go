package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/logging"
)

// Sender serializes access to a Transport with drop-old semantics: while
// one send is in flight, Offer replaces the pending packet instead of
// queuing behind it. Encoding is cheap; the transport is the bottleneck,
// and a newer colour frame is always worth more than an older unsent one.
type Sender struct {
	transport Transport

	mu      sync.Mutex
	pending []byte
	wake    chan struct{}

	dropped uint64
}

// NewSender wraps a transport.
func NewSender(t Transport) *Sender {
	return &Sender{
		transport: t,
		wake:      make(chan struct{}, 1),
	}
}

// Offer stages a packet for sending, replacing any not-yet-sent packet.
// Never blocks.
func (s *Sender) Offer(pkt []byte) {
	s.mu.Lock()
	if s.pending != nil {
		s.dropped++
	}
	s.pending = pkt
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Dropped reports how many staged packets were superseded before sending.
func (s *Sender) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run sends staged packets one at a time until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			dropped := s.dropped
			s.mu.Unlock()
			logging.Info("Sender stopped", zap.Uint64("superseded", dropped))
			return nil
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			pkt := s.pending
			s.pending = nil
			s.mu.Unlock()
			if pkt == nil {
				break
			}

			if err := s.transport.Send(ctx, pkt); err != nil {
				// Best-effort path: the next frame supersedes this one
				logging.Warn("Transport send failed", zap.Error(err))
			}
		}
	}
}
