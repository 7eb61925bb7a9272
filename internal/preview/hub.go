// Package preview mirrors the frame stream to websocket clients so the
// animation can be watched without the strip attached.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/huestream/internal/color"
)

type Frame struct {
	T       int64       `json:"t"`
	FrameID uint64      `json:"frame_id"`
	Step    int         `json:"step"`
	RGB     color.Frame `json:"rgb"`
}

// sendBuffer is how many frames a slow client may fall behind before
// frames for it are dropped.
const sendBuffer = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu         sync.RWMutex
	Resolution int
	Driver     string

	frameID   uint64
	step      int
	last      color.Frame
	startTime time.Time
	clients   map[*client]struct{}
	dropped   atomic.Uint64
	log       zerolog.Logger
}

func NewHub(resolution int, driver string, log zerolog.Logger) *Hub {
	return &Hub{
		Resolution: resolution,
		Driver:     driver,
		startTime:  time.Now(),
		clients:    map[*client]struct{}{},
		log:        log,
	}
}

// ObserveFrame queues f for every connected client. It never blocks on a
// client: a full queue drops the frame for that client only.
func (h *Hub) ObserveFrame(step int, f color.Frame) {
	h.mu.Lock()
	h.frameID++
	h.step = step
	h.last = f
	b, err := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: h.frameID, Step: step, RGB: f})
	h.mu.Unlock()
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped is the number of frames skipped for clients that fell behind.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// remove closes the send queue under the write lock so no ObserveFrame is
// mid-send.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := h.add(conn)

	// writer: the only goroutine writing to conn
	go func() {
		for b := range c.send {
			conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.log.Debug().Err(err).Msg("write frame, dropping client")
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer func() {
			h.remove(c)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"frame_id":   h.frameID,
		"step":       h.step,
		"rgb":        h.last,
		"uptime_s":   time.Since(h.startTime).Seconds(),
		"resolution": h.Resolution,
		"driver":     h.Driver,
		"clients":    len(h.clients),
		"dropped":    h.dropped.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
