package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ghrelay/pkg/logx"
)

func entry(id string) DeliveryEntry {
	return DeliveryEntry{
		At:             time.Now().UTC(),
		NotificationID: id,
		Repository:     "octo/hello",
		SubjectType:    "PullRequest",
		Reason:         "review_requested",
		Title:          "Fix the thing",
		Link:           "https://github.com/octo/hello/pull/7",
	}
}

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", "  None "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Errorf("driver %q: got (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreAppendAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if err := st.AppendDelivery(ctx, entry(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	got, err := st.RecentDeliveries(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].NotificationID != "3" || got[1].NotificationID != "2" {
		t.Fatalf("recent = %+v, want newest first [3 2]", got)
	}
	if got[0].Repository != "octo/hello" || got[0].Reason != "review_requested" {
		t.Errorf("fields lost on round trip: %+v", got[0])
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.AppendDelivery(ctx, entry("1")); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{torn write\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := st.AppendDelivery(ctx, entry("2")); err != nil {
		t.Fatal(err)
	}

	got, err := st.RecentDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].NotificationID != "2" || got[1].NotificationID != "1" {
		t.Fatalf("recent = %+v, want [2 1]", got)
	}
}

func TestSQLiteStoreAppendAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := st.AppendDelivery(ctx, entry(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	got, err := st.RecentDeliveries(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].NotificationID != "c" || got[1].NotificationID != "b" {
		t.Fatalf("recent = %+v, want newest first [c b]", got)
	}
	if got[0].Title != "Fix the thing" {
		t.Errorf("title lost on round trip: %+v", got[0])
	}
}
