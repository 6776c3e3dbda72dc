package sink

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// Message is the JSON frame sent over a websocket stream
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Frame types sent over a stream
const (
	MessageEvent    = "event"
	MessageProgress = "progress"
	MessageStats    = "stats"
	MessageError    = "error"
	MessageComplete = "complete"
)

const writeDeadline = 10 * time.Second

// WebSocketSink streams events to a websocket peer as JSON frames.
// Events are batched so a large run does not cost one frame per bounce.
type WebSocketSink struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	batch     []integrator.RayEvent
	batchSize int
}

// NewWebSocketSink creates a sink sending batches of up to batchSize events
func NewWebSocketSink(conn *websocket.Conn, batchSize int) *WebSocketSink {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &WebSocketSink{
		conn:      conn,
		batchSize: batchSize,
		batch:     make([]integrator.RayEvent, 0, batchSize),
	}
}

// Record queues the event and sends a frame once the batch is full
func (w *WebSocketSink) Record(e integrator.RayEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch = append(w.batch, e)
	if len(w.batch) < w.batchSize {
		return nil
	}
	return w.flushLocked()
}

// Send writes a control frame such as progress or stats, flushing pending events first
func (w *WebSocketSink) Send(msgType string, payload interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.flushLocked(); err != nil {
		return err
	}
	return w.writeLocked(Message{Type: msgType, Payload: payload})
}

// Flush sends any queued events
func (w *WebSocketSink) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *WebSocketSink) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}
	err := w.writeLocked(Message{Type: MessageEvent, Payload: w.batch})
	w.batch = w.batch[:0]
	return err
}

func (w *WebSocketSink) writeLocked(msg Message) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return w.conn.WriteJSON(msg)
}
