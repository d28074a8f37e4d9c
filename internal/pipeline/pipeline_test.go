package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/colormap"
	"github.com/lumenjack/brsync/internal/protocol"
	"github.com/lumenjack/brsync/internal/transport"
)

// chanSource is a hand-driven IntensitySource for tests.
type chanSource struct {
	ch chan audio.Frame
}

func (s *chanSource) Frames() <-chan audio.Frame    { return s.ch }
func (s *chanSource) Run(ctx context.Context) error { <-ctx.Done(); return nil }

// captureTransport records every packet it is asked to send.
type captureTransport struct {
	mu   sync.Mutex
	pkts [][]byte
}

func (c *captureTransport) Send(ctx context.Context, pkt []byte) error {
	c.mu.Lock()
	c.pkts = append(c.pkts, pkt)
	c.mu.Unlock()
	return nil
}

func (c *captureTransport) packets() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.pkts))
	copy(out, c.pkts)
	return out
}

// newTestPipeline builds a pipeline around a hand-driven source, skipping
// config/socket setup.
func newTestPipeline(t *testing.T, tr transport.Transport) (*Pipeline, *chanSource) {
	t.Helper()
	mapper, err := colormap.New(colormap.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	src := &chanSource{ch: make(chan audio.Frame, 1)}
	return &Pipeline{
		role:   "follower",
		source: src,
		mapper: mapper,
		sender: transport.NewSender(tr),
		addr:   protocol.Address{Hi: 0x00, Lo: 0x05},
		mode:   protocol.ModeDirect,
	}, src
}

func TestPipelineFrameToColorCommand(t *testing.T) {
	// The end-to-end follower scenario: an accepted sync frame with
	// levels 0.8/0.1/0.1 must become a 12-byte direct-mode colour
	// command of roughly (204,26,26) for the configured address.
	tr := &captureTransport{}
	p, src := newTestPipeline(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); _ = p.Run(ctx) }()

	src.ch <- audio.Frame{Seq: 5, Timestamp: time.Now(), Bass: 0.8, Mid: 0.1, Treble: 0.1}

	waitFor(t, func() bool { return len(tr.packets()) >= 1 })
	cancel()
	<-done

	pkt := tr.packets()[0]
	if len(pkt) != protocol.PacketSize {
		t.Fatalf("packet length = %d, want %d", len(pkt), protocol.PacketSize)
	}
	cmd, err := protocol.DecodeColor(pkt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Mode != protocol.ModeDirect {
		t.Errorf("mode = 0x%02x, want 0xff", cmd.Mode)
	}
	if cmd.Addr != (protocol.Address{Hi: 0x00, Lo: 0x05}) {
		t.Errorf("address = %v, want 00:05", cmd.Addr)
	}
	if cmd.R != 204 || cmd.G != 26 || cmd.B != 26 {
		t.Errorf("rgb = (%d,%d,%d), want (204,26,26)", cmd.R, cmd.G, cmd.B)
	}
}

func TestPipelineSinksSeeEveryFrame(t *testing.T) {
	tr := &captureTransport{}
	p, src := newTestPipeline(t, tr)

	var mu sync.Mutex
	var seen []uint32
	p.AddSink(sinkFunc(func(f audio.Frame) {
		mu.Lock()
		seen = append(seen, f.Seq)
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); _ = p.Run(ctx) }()

	for i := uint32(1); i <= 3; i++ {
		src.ch <- audio.Frame{Seq: i, Bass: 0.5}
		waitFor(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(seen) == int(i)
		})
	}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("sink saw %v, want [1 2 3]", seen)
	}
}

// sinkFunc adapts a function to FrameSink.
type sinkFunc func(audio.Frame)

func (f sinkFunc) Publish(frame audio.Frame) { f(frame) }

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
