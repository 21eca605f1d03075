package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the optional delivery-history log.
//
// Driver values:
//   - "file": append-only JSON Lines
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryEntry records one forwarded notification. Keep it compact and
// schema-stable.
type DeliveryEntry struct {
	At             time.Time
	NotificationID string
	Repository     string
	SubjectType    string
	Reason         string
	Title          string
	Link           string
}
