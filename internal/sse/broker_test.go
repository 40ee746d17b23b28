package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain returns the messages already queued on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishChange_Delivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	b.PublishChange(KindDataset, "data/dataset.csv")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: dataset.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"data/dataset.csv"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_ReloadThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	b.PublishChange(KindDataset, "dataset.csv")
	b.PublishChange(KindTemplate, "index.html")
	b.PublishChange("bogus", "x")

	time.Sleep(50 * time.Millisecond)
	reloads, changes := 0, 0
	for _, msg := range drain(ch) {
		if strings.HasPrefix(msg, "event: reload") {
			reloads++
		} else {
			changes++
		}
	}

	if changes != 2 {
		t.Errorf("change events = %d, want 2", changes)
	}
	if reloads != 1 {
		t.Errorf("reload events = %d, want 1 (throttled)", reloads)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.subscribe()
	b.unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	// Later changes must not panic on the closed channel.
	b.PublishChange(KindDataset, "dataset.csv")
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	b.PublishChange(KindDataset, "dataset.csv")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: dataset.updated") || !strings.Contains(body, "event: reload") {
		t.Errorf("handler output missing events: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}

func TestPublishChange_DropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	// The client buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 100; i++ {
		b.PublishChange(KindDataset, "dataset.csv")
	}
	time.Sleep(50 * time.Millisecond)
	if n := len(drain(ch)); n != 64 {
		t.Errorf("queued = %d, want 64", n)
	}
}

func TestCloseEndsStreams(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if _, ok := <-b.subscribe(); ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
	b.PublishChange(KindDataset, "x.csv")
	b.Close()
}
