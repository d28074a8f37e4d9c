package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/logging"
)

// DefaultAddr binds the feed to loopback; the feed carries no
// authentication and must not be exposed off-host.
const DefaultAddr = "127.0.0.1:7879"

// Config holds the monitor server configuration
type Config struct {
	Addr string // listen address, "host:port"
}

// frameJSON is the wire representation of one analysis frame.
type frameJSON struct {
	Seq       uint32  `json:"seq"`
	Timestamp int64   `json:"timestamp_us"`
	Bass      float64 `json:"bass"`
	Mid       float64 `json:"mid"`
	Treble    float64 `json:"treble"`
}

// client is one connected WebSocket reader with its drop-old frame slot.
type client struct {
	conn   *websocket.Conn
	frames chan audio.Frame
}

// Server streams analysis frames to WebSocket clients. It implements the
// pipeline's frame sink: Publish never blocks.
type Server struct {
	listener net.Listener
	httpSrv  *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New binds the listen socket and prepares the server. The socket is bound
// eagerly so a port conflict surfaces at startup, not on first connect.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind monitor address %q: %w", cfg.Addr, err)
	}

	s := &Server{
		listener: listener,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// Loopback-only debugging feed, origin checks add nothing here
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/frames", s.handleFrames)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Addr returns the bound listen address, useful when Config.Addr used port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run serves WebSocket clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logging.Info("Monitor feed listening", zap.String("addr", s.Addr()))

	errc := make(chan error, 1)
	go func() {
		errc <- s.httpSrv.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.closeClients()
		return nil
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("monitor server failed: %w", err)
	}
}

// Publish offers a frame to every connected client. It never blocks: a
// client that has not consumed its previous frame gets the newer one
// instead.
func (s *Server) Publish(f audio.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.frames <- f:
		default:
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- f:
			default:
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Monitor upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn:   conn,
		frames: make(chan audio.Frame, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	logging.Info("Monitor client connected",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("clients", count),
	)

	go s.writeLoop(c)
	s.readLoop(c)
}

// writeLoop drains the client's frame slot into the socket. A write error
// means the client is gone; readLoop handles removal.
func (s *Server) writeLoop(c *client) {
	for f := range c.frames {
		msg := frameJSON{
			Seq:       f.Seq,
			Timestamp: f.Timestamp.UnixMicro(),
			Bass:      f.Bass,
			Mid:       f.Mid,
			Treble:    f.Treble,
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// readLoop blocks until the client disconnects. Inbound messages are
// discarded; the feed is one-way.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	s.remove(c)
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
		close(c.frames)
	}
	count := len(s.clients)
	s.mu.Unlock()

	if ok {
		c.conn.Close()
		logging.Info("Monitor client disconnected", zap.Int("clients", count))
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		close(c.frames)
		c.conn.Close()
	}
}
