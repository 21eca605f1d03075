package config

// Config is the full on-disk configuration.
//
// All durations are Go duration strings (e.g. "30s", "5m").
// The file may be JSON or YAML; YAML is coerced to JSON and decoded with
// DisallowUnknownFields so typos are caught at load time.
type Config struct {
	GitHub  GitHubConfig   `json:"github"`
	Discord DiscordConfig  `json:"discord"`
	Relay   RelayConfig    `json:"relay"`
	Logging LoggingConfig  `json:"logging"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Pprof   PprofConfig    `json:"pprof,omitempty"`
}

// GitHubConfig configures the notification source.
type GitHubConfig struct {
	// Token is a personal access token with the notifications scope. Required.
	Token string `json:"token"`

	// APIBase overrides the API root (GitHub Enterprise, tests).
	// Default: "https://api.github.com".
	APIBase string `json:"api_base,omitempty"`

	// OnlyUnread restricts fetches to unread notifications and enables the
	// since-watermark narrowing. Defaults to true when omitted.
	OnlyUnread *bool `json:"only_unread,omitempty"`

	// HTTPTimeout bounds a single inbox fetch. Default: "15s".
	HTTPTimeout string `json:"http_timeout,omitempty"`
}

// DiscordConfig configures the delivery sink.
type DiscordConfig struct {
	// Token is the bot token. Required.
	Token string `json:"token"`

	// ChannelID is the destination channel. Required.
	ChannelID string `json:"channel_id"`

	// ReadyTimeout bounds the wait for the gateway ready event before the
	// first check runs. Default: "30s".
	ReadyTimeout string `json:"ready_timeout,omitempty"`

	// Commands enables the !check and !status chat commands in the
	// notification channel. Defaults to true; needs the message-content
	// intent granted to the bot. Set false to run send-only.
	Commands *bool `json:"commands,omitempty"`
}

// RelayConfig controls the poll loop.
//
// Restart semantics: the seen-set and watermark live in memory only. After a
// restart the first check re-announces every currently unread notification
// once. This is deliberate fail-open behavior, not a bug.
type RelayConfig struct {
	// CheckInterval is the poll cadence. Default: "5m".
	CheckInterval string `json:"check_interval,omitempty"`

	// Pace is the delay between two consecutive Discord sends within one
	// check, so a large batch doesn't burst the channel. Default: "1s".
	Pace string `json:"pace,omitempty"`

	// SeenMaxEntries caps the in-memory seen-set; when exceeded the set is
	// pruned to SeenPruneTo entries, dropping the oldest-inserted first.
	// Defaults: 1000 / 500.
	SeenMaxEntries int `json:"seen_max_entries,omitempty"`
	SeenPruneTo    int `json:"seen_prune_to,omitempty"`
}

type LoggingConfig struct {
	Level   string         `json:"level"`
	Console bool           `json:"console"`
	File    LoggingFile    `json:"file"`
	Discord LoggingDiscord `json:"discord"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingDiscord mirrors warn+ log records into the notification channel,
// rate-limited.
type LoggingDiscord struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the optional delivery-history log.
//
// Driver values:
//   - "file": append-only JSON Lines
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled. The history log is
// write-only from the relay's point of view; it is never used for dedup.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PprofConfig controls the optional pprof HTTP server.
//
// Security note: prefer binding to localhost. Binding to a non-loopback
// address requires AllowInsecure.
type PprofConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}
