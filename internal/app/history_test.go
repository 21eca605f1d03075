package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"ghrelay/internal/eventbus"
	"ghrelay/internal/relay"
	"ghrelay/internal/storage"
	"ghrelay/pkg/logx"
)

type recordingStore struct {
	mu      sync.Mutex
	entries []storage.DeliveryEntry
	saved   chan struct{}
}

func (s *recordingStore) AppendDelivery(_ context.Context, e storage.DeliveryEntry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	select {
	case s.saved <- struct{}{}:
	default:
	}
	return nil
}

func (s *recordingStore) RecentDeliveries(context.Context, int) ([]storage.DeliveryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.DeliveryEntry(nil), s.entries...), nil
}

func (s *recordingStore) Close() error { return nil }

func TestHistoryLoopAppendsDeliveredEvents(t *testing.T) {
	store := &recordingStore{saved: make(chan struct{}, 1)}
	bus := eventbus.New()
	a := &App{bus: bus, store: store, log: logx.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.historyLoop(ctx)
	}()

	// Give the loop a moment to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)

	bus.Publish(eventbus.Event{Type: eventbus.EventFetchFailed, Data: relay.DeliveryEvent{Error: "503"}})
	bus.Publish(eventbus.Event{
		Type: eventbus.EventDelivered,
		Data: relay.DeliveryEvent{
			ID:          "9",
			Repository:  "octo/hello",
			SubjectType: "Issue",
			Reason:      "mention",
			Title:       "panic on start",
			Link:        "https://github.com/octo/hello/issues/9",
		},
	})

	select {
	case <-store.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("delivered event never reached the store")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("historyLoop did not stop on cancel")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.entries) != 1 {
		t.Fatalf("entries = %d, want 1 (fetch-failed events must be ignored)", len(store.entries))
	}
	e := store.entries[0]
	if e.NotificationID != "9" || e.Repository != "octo/hello" || e.SubjectType != "Issue" ||
		e.Reason != "mention" || e.Title != "panic on start" || e.Link == "" {
		t.Fatalf("entry = %+v", e)
	}
	if e.At.IsZero() {
		t.Fatal("entry timestamp missing")
	}
}
