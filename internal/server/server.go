// Package server exposes live transform output over HTTP: a websocket feed
// of feature snapshots and rendered frames, plus a health endpoint.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonovision/internal/driver"
	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 16
)

type message struct {
	kind int
	data []byte
}

// FeatureEvent is the JSON envelope sent to websocket clients for each
// feature snapshot
type FeatureEvent struct {
	Type     string  `json:"type"`
	Volume   float64 `json:"volume"`
	Pitch    float64 `json:"pitch"`
	Centroid float64 `json:"centroid"`
	Rolloff  float64 `json:"rolloff"`
	Energy   float64 `json:"energy"`
	State    string  `json:"state"`
}

// FrameEvent announces an incoming binary frame so clients can interpret
// the next binary message
type FrameEvent struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Config contains configuration for the streaming server
type Config struct {
	Addr   string
	Logger logging.Logger
}

// Server broadcasts feature snapshots and rendered frames to websocket
// clients. Slow clients are dropped rather than allowed to stall the
// broadcast path.
type Server struct {
	addr     string
	logger   logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool

	httpServer *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan message
}

// NewServer creates a streaming server bound to cfg.Addr
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Server{
		addr: cfg.Addr,
		logger: logger.WithFields(logging.Fields{
			"component": "stream_server",
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	return s
}

// Run serves until the context is cancelled, then drains connections
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Streaming server listening", logging.Fields{
			"addr": s.addr,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return NewServerError(ErrCodeServerStart, "listen failed", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ClientCount returns the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// BroadcastFeatures sends a feature snapshot event to all clients
func (s *Server) BroadcastFeatures(f features.AudioFeatures, state driver.State) {
	event := FeatureEvent{
		Type:     "features",
		Volume:   f.Volume,
		Pitch:    f.Pitch,
		Centroid: f.Centroid,
		Rolloff:  f.Rolloff,
		Energy:   f.Energy,
		State:    state.String(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.broadcast(message{kind: websocket.TextMessage, data: data})
}

// BroadcastFrame sends a frame announcement followed by the PNG payload
func (s *Server) BroadcastFrame(frame driver.Frame) {
	header, err := json.Marshal(FrameEvent{
		Type:   "frame",
		Origin: frame.Origin,
		Width:  frame.Image.Width,
		Height: frame.Image.Height,
	})
	if err != nil {
		return
	}

	var png bytes.Buffer
	if err := frame.Image.EncodePNG(&png); err != nil {
		s.logger.Warn("Frame encode failed, dropping broadcast", logging.Fields{
			"error": err.Error(),
		})
		return
	}

	s.broadcast(message{kind: websocket.TextMessage, data: header})
	s.broadcast(message{kind: websocket.BinaryMessage, data: png.Bytes()})
}

func (s *Server) broadcast(msg message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// Client cannot keep up; drop it instead of blocking the feed.
			close(c.send)
			delete(s.clients, c)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", logging.Fields{
			"error":  err.Error(),
			"remote": r.RemoteAddr,
		})
		return
	}

	c := &client{
		conn: conn,
		send: make(chan message, sendBufferSize),
	}

	s.mu.Lock()
	s.clients[c] = true
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Debug("Client connected", logging.Fields{
		"remote":  r.RemoteAddr,
		"clients": total,
	})

	go s.writePump(c)
	go s.readPump(c)
}

// readPump discards inbound messages; the feed is one-way. It exists to
// notice disconnects and keep the pong handler serviced.
func (s *Server) readPump(c *client) {
	defer s.removeClient(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
}
