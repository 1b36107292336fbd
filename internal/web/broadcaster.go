package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cjeanneret/SnapGo/internal/logic/frame"
)

// Event levels sent over SSE besides plain "info"/"error" status lines.
const (
	LevelCapture  = "capture"  // msg is the captured PNG data URI
	LevelUploaded = "uploaded" // msg is the object key
	LevelStatus   = "status"   // msg is the upload status message
)

// StatusEvent represents a single status message for SSE.
type StatusEvent struct {
	Time  string `json:"t"`
	Level string `json:"l,omitempty"`
	Msg   string `json:"msg"`
}

// StatusBroadcaster distributes status messages to multiple SSE clients.
// The last "status" event is replayed to new subscribers.
type StatusBroadcaster struct {
	mu         sync.RWMutex
	clients    map[chan string]struct{}
	lastStatus string
}

// NewStatusBroadcaster creates a new broadcaster.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast messages and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	if b.lastStatus != "" {
		ch <- b.lastStatus
	}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Broadcast sends a message to all subscribed clients.
// Messages are sent as JSON: {"t":"...","l":"info","msg":"..."}
// Slow clients may miss messages (non-blocking, buffered).
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	evt := StatusEvent{
		Time:  time.Now().Format(time.RFC3339),
		Level: level,
		Msg:   msg,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if level == LevelStatus {
		b.lastStatus = payload
	}
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// StatusCallback returns a func that sends each status message as a "status" event.
func (b *StatusBroadcaster) StatusCallback() func(msg string) {
	return func(msg string) {
		b.Broadcast(LevelStatus, msg)
	}
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// CaptureCallback returns a capture callback that forwards payloads to SSE
// clients: data URIs as "capture" events, object keys as "uploaded" events.
func (b *StatusBroadcaster) CaptureCallback() func(payload string) {
	return func(payload string) {
		if frame.IsDataURI(payload) {
			b.Broadcast(LevelCapture, payload)
			return
		}
		b.Broadcast(LevelUploaded, payload)
	}
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to SSE clients.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

// broadcastWriter wraps StatusBroadcaster as io.Writer for use with debug.SetOutput.
type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.BroadcastMsg(msg)
	}
	return len(p), nil
}
