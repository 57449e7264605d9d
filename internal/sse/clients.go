// Package sse provides Server-Sent Events client management for the editor page.
package sse

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/debemdeboas/inkwell/internal/model"
)

// Event is one named server-sent event. Data may span several lines.
type Event struct {
	Name string
	Data string
}

// WriteTo encodes the event in the text/event-stream format.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Name)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

type Client struct {
	Events  chan Event
	DraftID model.DraftID
}

func NewClient(draftID model.DraftID, buffer int) *Client {
	return &Client{
		Events:  make(chan Event, buffer),
		DraftID: draftID,
	}
}

type Clients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewClients() *Clients {
	return &Clients{
		clients: make(map[*Client]bool),
	}
}

func (s *Clients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// Delete removes the client and closes its channel. Deleting twice is a no-op.
func (s *Clients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Events)
}

func (s *Clients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast queues ev for every client of the draft without blocking. Clients
// with a full buffer miss the event. It returns how many clients received it.
func (s *Clients) Broadcast(draftID model.DraftID, ev Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for client := range s.clients {
		if client.DraftID != draftID {
			continue
		}
		select {
		case client.Events <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Send queues ev for a single client without blocking. It reports false when
// the client is gone or its buffer is full.
func (s *Clients) Send(client *Client, ev Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.clients[client] {
		return false
	}
	select {
	case client.Events <- ev:
		return true
	default:
		return false
	}
}

// Stream writes the client's events to w until the request ends or the
// client is deleted.
func Stream(w http.ResponseWriter, r *http.Request, client *Client) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported by %T", w)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")
	w.WriteHeader(http.StatusOK)

	if _, err := (Event{Name: "connected", Data: "SSE connection established"}).WriteTo(w); err != nil {
		return err
	}
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case ev, ok := <-client.Events:
			if !ok {
				return nil
			}
			if _, err := ev.WriteTo(w); err != nil {
				return err
			}
			flusher.Flush()
		case <-notify:
			return nil
		}
	}
}
