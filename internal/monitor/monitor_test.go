package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenjack/brsync/internal/audio"
)

func startTestServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()
	srv, err := New(Config{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	t.Cleanup(cancel)
	return srv, cancel
}

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/frames", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, srv.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublishReachesClientAsJSON(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)
	waitForClients(t, srv, 1)

	now := time.Now()
	srv.Publish(audio.Frame{
		Seq:       7,
		Timestamp: now,
		Bass:      0.8,
		Mid:       0.1,
		Treble:    0.05,
	})

	var got frameJSON
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Seq != 7 {
		t.Errorf("seq = %d, want 7", got.Seq)
	}
	if got.Timestamp != now.UnixMicro() {
		t.Errorf("timestamp = %d, want %d", got.Timestamp, now.UnixMicro())
	}
	if got.Bass != 0.8 || got.Mid != 0.1 || got.Treble != 0.05 {
		t.Errorf("levels = (%v, %v, %v), want (0.8, 0.1, 0.05)", got.Bass, got.Mid, got.Treble)
	}
}

func TestPublishNeverBlocksWithoutClients(t *testing.T) {
	srv, _ := startTestServer(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			srv.Publish(audio.Frame{Seq: uint32(i + 1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no clients connected")
	}
}

func TestSlowClientSeesNewestFrame(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)
	waitForClients(t, srv, 1)

	// The client is not reading yet; burst frames faster than any
	// consumer. Publish must never block and the newest frame must
	// still come through once the client starts reading.
	for i := 1; i <= 50; i++ {
		srv.Publish(audio.Frame{Seq: uint32(i), Timestamp: time.Now()})
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var got frameJSON
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("newest frame never delivered: %v", err)
		}
		if got.Seq == 50 {
			return
		}
		if got.Seq > 50 {
			t.Fatalf("unexpected seq %d", got.Seq)
		}
	}
}

func TestClientDisconnectIsObserved(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)
	waitForClients(t, srv, 1)

	conn.Close()
	waitForClients(t, srv, 0)

	// Publishing after disconnect must not panic or block.
	srv.Publish(audio.Frame{Seq: 1})
}
