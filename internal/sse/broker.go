// Package sse implements a Server-Sent Events broker that tells open chart
// pages when the dataset or the page template changed on disk.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Change kinds accepted by PublishChange.
const (
	KindDataset  = "dataset"
	KindTemplate = "template"
)

var changeEvents = map[string]string{
	KindDataset:  "dataset.updated",
	KindTemplate: "template.updated",
}

type change struct {
	kind string
	path string
}

// Broker fans change notifications out to the connected pages.
//
// The client set and the time of the last "reload" belong to the run
// goroutine; everything else reaches them over channels.
type Broker struct {
	reloadMin time.Duration
	heartbeat time.Duration

	join    chan chan []byte
	leave   chan chan []byte
	changes chan change

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one "reload" event per
// reloadThrottle.
func NewBroker(reloadThrottle time.Duration) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = time.Second
	}

	b := &Broker{
		reloadMin: reloadThrottle,
		heartbeat: 30 * time.Second,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		changes:   make(chan change, 256),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	go b.run()
	return b
}

// frame formats one SSE message.
func frame(name string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastReload time.Time

	send := func(msg []byte) {
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// slow page, it reloads on the next change anyway
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changes:
			name, ok := changeEvents[c.kind]
			if !ok {
				continue
			}
			send(frame(name, map[string]string{"path": c.path}))

			if now := time.Now(); now.Sub(lastReload) >= b.reloadMin {
				lastReload = now
				send(frame("reload", map[string]string{}))
			}
		}
	}
}

// Close stops the broker and ends every open stream.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

func (b *Broker) subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

func (b *Broker) unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// PublishChange announces a changed dataset or template file and, at most
// once per throttle interval, a "reload" event. Unknown kinds are ignored.
func (b *Broker) PublishChange(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- change{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
