package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cjeanneret/SnapGo/internal/logic/capture"
	"github.com/cjeanneret/SnapGo/internal/storage"
)

// Camera is the capture component driven by the control panel.
// *capture.Session implements it.
type Camera interface {
	Start(ctx context.Context) error
	Stop() error
	Capture(ctx context.Context) (storage.Result, error)
	Preview(ctx context.Context) (image.Image, error)
	State() capture.State
	Status() string
}

// StateResponse is returned by GET /state and the camera control endpoints.
type StateResponse struct {
	State  string `json:"state"`
	Status string `json:"status"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Camera      Camera
	capturingMu sync.Mutex
	capturing   bool
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If cam is nil, camera endpoints return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, cam Camera, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Camera:      cam,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (h *Handlers) writeState(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(StateResponse{
		State:  h.Camera.State().String(),
		Status: h.Camera.Status(),
	})
}

func (h *Handlers) available(w http.ResponseWriter) bool {
	if h.Camera == nil {
		http.Error(w, "camera not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// HandleState handles GET /state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	h.writeState(w, http.StatusOK)
}

// HandleStart handles POST /camera/start.
// Camera access failures are logged only; the response reports the idle state.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	err := h.Camera.Start(r.Context())
	if errors.Is(err, capture.ErrAlreadyActive) {
		http.Error(w, "camera already active", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("camera start failed: %v", err)
	}
	h.writeState(w, http.StatusOK)
}

// HandleStop handles POST /camera/stop.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if err := h.Camera.Stop(); err != nil {
		log.Printf("camera stop: %v", err)
	}
	h.writeState(w, http.StatusOK)
}

// HandleCapture handles POST /capture. The capture and upload run in a
// goroutine; results reach the page over the SSE stream (the status event
// is sent by the camera's status hook).
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if h.Camera.State() != capture.Active {
		http.Error(w, "camera not started", http.StatusConflict)
		return
	}

	h.capturingMu.Lock()
	if h.capturing {
		h.capturingMu.Unlock()
		http.Error(w, "capture already in progress", http.StatusConflict)
		return
	}
	h.capturing = true
	h.capturingMu.Unlock()

	// Run in goroutine; clear capturing when done. Stopping the camera does
	// not cancel the upload.
	go func() {
		defer func() {
			h.capturingMu.Lock()
			h.capturing = false
			h.capturingMu.Unlock()
		}()

		if _, err := h.Camera.Capture(context.Background()); err != nil {
			h.Broadcaster.Broadcast("error", "Capture failed: "+err.Error())
			log.Printf("capture failed: %v", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// HandlePreview handles GET /preview.png with the current camera frame.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	img, err := h.Camera.Preview(r.Context())
	if errors.Is(err, capture.ErrNoStream) {
		http.Error(w, "camera not started", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "preview unavailable", http.StatusInternalServerError)
		log.Printf("preview: %v", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Printf("preview encode: %v", err)
	}
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
