package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration reads the Go duration string at the named config field. An empty
// value yields def, so callers state their default at the use site instead of
// scattering zero checks. Negative values are rejected: "-5m" on a timer
// field would otherwise silently disable it.
func Duration(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
