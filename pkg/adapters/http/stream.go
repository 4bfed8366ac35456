package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // workspace -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener for a workspace. The returned func
// unregisters it and closes the channel.
func (sm *StreamManager) Subscribe(workspace string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[workspace]; !ok {
		sm.subscribers[workspace] = make(map[chan<- string]struct{})
	}
	sm.subscribers[workspace][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[workspace]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, workspace)
				}
			}
		})
	}
}

// Subscribers reports how many listeners a workspace has.
func (sm *StreamManager) Subscribers(workspace string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[workspace])
}

func (sm *StreamManager) Broadcast(workspace string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[workspace] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "workspace", workspace)
		}
	}
}

// SubscribeEvents handles the GET /events?workspace=NAME[&watch=op,op] request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing workspace parameter"})
		return
	}

	watch := map[string]bool{}
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, op := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(op)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to workspace changes", "workspace", workspace)
	ch, cancel := s.Streams.Subscribe(workspace)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "workspace", workspace)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 {
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg), &ev); err == nil && !watch[ev.Op] {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
