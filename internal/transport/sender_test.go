package transport

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingTransport lets tests hold a send in flight
type blockingTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	release chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, pkt []byte) error {
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	b.sent = append(b.sent, pkt)
	b.mu.Unlock()
	return nil
}

func (b *blockingTransport) sentPackets() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.sent))
	copy(out, b.sent)
	return out
}

func TestSenderDeliversPacket(t *testing.T) {
	tr := &blockingTransport{}
	s := NewSender(tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = s.Run(ctx) }()

	s.Offer([]byte{0x93, 0x01})

	waitFor(t, func() bool { return len(tr.sentPackets()) == 1 })
	cancel()
	<-done
}

func TestSenderDropsOldWhenBusy(t *testing.T) {
	tr := &blockingTransport{release: make(chan struct{})}
	s := NewSender(tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); _ = s.Run(ctx) }()

	// First packet enters the transport and blocks there
	s.Offer([]byte{0x01})
	time.Sleep(50 * time.Millisecond)

	// While busy: stage three more; only the newest may survive
	s.Offer([]byte{0x02})
	s.Offer([]byte{0x03})
	s.Offer([]byte{0x04})

	// Release both sends (first the in-flight one, then the survivor)
	tr.release <- struct{}{}
	tr.release <- struct{}{}

	waitFor(t, func() bool { return len(tr.sentPackets()) == 2 })

	sent := tr.sentPackets()
	if sent[0][0] != 0x01 || sent[1][0] != 0x04 {
		t.Errorf("sent packets = %v, want first and newest only", sent)
	}
	if got := s.Dropped(); got != 2 {
		t.Errorf("superseded count = %d, want 2", got)
	}

	cancel()
	<-done
}

func TestSenderOfferNeverBlocks(t *testing.T) {
	// No Run loop consuming at all
	s := NewSender(&blockingTransport{})
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		for i := 0; i < 1000; i++ {
			s.Offer([]byte{byte(i)})
		}
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Offer blocked without a consumer")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
