package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ghrelay/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one append-only
// JSON Lines file of delivery records.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

type deliveryRecord struct {
	At             time.Time `json:"at"`
	NotificationID string    `json:"id"`
	Repository     string    `json:"repo,omitempty"`
	SubjectType    string    `json:"type,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Title          string    `json:"title,omitempty"`
	Link           string    `json:"link,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if filepath.Ext(path) == "" {
		path += ".deliveries.jsonl"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f = nil
	s.w = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (s *fileStore) AppendDelivery(ctx context.Context, e DeliveryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b, err := json.Marshal(deliveryRecord{
		At:             e.At,
		NotificationID: e.NotificationID,
		Repository:     e.Repository,
		SubjectType:    e.SubjectType,
		Reason:         e.Reason,
		Title:          e.Title,
		Link:           e.Link,
	})
	if err != nil {
		return err
	}
	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *fileStore) RecentDeliveries(ctx context.Context, limit int) ([]DeliveryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	path := s.path
	if s.w != nil {
		_ = s.w.Flush()
	}
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	// Keep only the trailing window; history files can get long.
	var tail []DeliveryEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec deliveryRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue // skip torn/corrupt lines
		}
		tail = append(tail, DeliveryEntry{
			At:             rec.At,
			NotificationID: rec.NotificationID,
			Repository:     rec.Repository,
			SubjectType:    rec.SubjectType,
			Reason:         rec.Reason,
			Title:          rec.Title,
			Link:           rec.Link,
		})
		if len(tail) > limit {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	// Newest first, matching the sqlite driver.
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}
	return tail, nil
}
