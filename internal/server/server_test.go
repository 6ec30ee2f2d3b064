package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RyanBlaney/sonovision/internal/driver"
	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/logging"
	"github.com/RyanBlaney/sonovision/pkg/raster"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(&Config{
		Addr:   ":0",
		Logger: logging.NewNopLogger(),
	})
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return s, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", s.ClientCount(), want)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestBroadcastFeatures(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialWS(t, ts)
	waitForClients(t, s, 1)

	s.BroadcastFeatures(features.AudioFeatures{
		Volume:   0.8,
		Pitch:    12,
		Centroid: 0.3,
	}, driver.StateListening)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("message kind = %d, want text", kind)
	}

	var event FeatureEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Type != "features" || event.Volume != 0.8 || event.State != "listening" {
		t.Errorf("event = %+v", event)
	}
}

func TestBroadcastFrame(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dialWS(t, ts)
	waitForClients(t, s, 1)

	img, err := raster.New(4, 4, 4)
	if err != nil {
		t.Fatalf("raster.New: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	s.BroadcastFrame(driver.Frame{Image: img, Origin: "local"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("header kind = %d, want text", kind)
	}
	var header FrameEvent
	if err := json.Unmarshal(data, &header); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if header.Type != "frame" || header.Origin != "local" || header.Width != 4 {
		t.Errorf("header = %+v", header)
	}

	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("payload kind = %d, want binary", kind)
	}
	decoded, err := raster.DecodePNG(strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("payload is not a decodable PNG: %v", err)
	}
	if decoded.Width != 4 || decoded.Height != 4 {
		t.Errorf("decoded shape %dx%d, want 4x4", decoded.Width, decoded.Height)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	s, _ := newTestServer(t)

	// A client whose send buffer is already full stands in for a stalled
	// connection; nothing drains the channel.
	stalled := &client{send: make(chan message, sendBufferSize)}
	for i := 0; i < sendBufferSize; i++ {
		stalled.send <- message{kind: websocket.TextMessage, data: []byte("{}")}
	}
	s.mu.Lock()
	s.clients[stalled] = true
	s.mu.Unlock()

	s.BroadcastFeatures(features.AudioFeatures{Volume: 0.5}, driver.StateListening)

	if got := s.ClientCount(); got != 0 {
		t.Errorf("client count after broadcast to stalled client = %d, want 0", got)
	}

	// Buffered messages drain first, then the close is observable.
	closed := false
	for i := 0; i < sendBufferSize+1; i++ {
		if _, ok := <-stalled.send; !ok {
			closed = true
			break
		}
	}
	if !closed {
		t.Errorf("stalled client send channel was not closed")
	}
}
