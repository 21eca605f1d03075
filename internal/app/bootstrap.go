package app

import (
	"fmt"
	"strings"
	"time"

	"ghrelay/internal/config"
	"ghrelay/internal/discord"
	"ghrelay/internal/github"
	"ghrelay/internal/observability/pprof"
	"ghrelay/internal/relay"
	"ghrelay/internal/storage"
	"ghrelay/pkg/logx"
)

// validateConfig is the startup and hot-reload gate. Anything it rejects at
// startup is fatal: the process refuses to start rather than run degraded.
func validateConfig(cfg *config.Config) error {
	if strings.TrimSpace(cfg.GitHub.Token) == "" {
		return fmt.Errorf("github.token is required")
	}
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return fmt.Errorf("discord.token is required")
	}
	if strings.TrimSpace(cfg.Discord.ChannelID) == "" {
		return fmt.Errorf("discord.channel_id is required")
	}

	if _, err := config.Duration("github.http_timeout", cfg.GitHub.HTTPTimeout, 0); err != nil {
		return err
	}
	if _, err := config.Duration("discord.ready_timeout", cfg.Discord.ReadyTimeout, 0); err != nil {
		return err
	}
	if d, err := config.Duration("relay.check_interval", cfg.Relay.CheckInterval, 0); err != nil {
		return err
	} else if cfg.Relay.CheckInterval != "" && d < time.Second {
		return fmt.Errorf("relay.check_interval must be >= 1s")
	}
	if _, err := config.Duration("relay.pace", cfg.Relay.Pace, 0); err != nil {
		return err
	}

	if cfg.Relay.SeenMaxEntries < 0 || cfg.Relay.SeenPruneTo < 0 {
		return fmt.Errorf("relay seen-set bounds must be >= 0")
	}
	if cfg.Relay.SeenMaxEntries > 0 && cfg.Relay.SeenPruneTo > 0 &&
		cfg.Relay.SeenPruneTo >= cfg.Relay.SeenMaxEntries {
		return fmt.Errorf("relay.seen_prune_to must be < relay.seen_max_entries")
	}

	if _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	return pprof.New(mapPprofConfig(cfg), logx.Nop()).Validate()
}

func mapGitHubConfig(cfg *config.Config) (github.Config, error) {
	timeout, err := config.Duration("github.http_timeout", cfg.GitHub.HTTPTimeout, 15*time.Second)
	if err != nil {
		return github.Config{}, err
	}
	return github.Config{
		Token:   cfg.GitHub.Token,
		APIBase: cfg.GitHub.APIBase,
		Timeout: timeout,
	}, nil
}

func mapDiscordConfig(cfg *config.Config) (discord.Config, error) {
	ready, err := config.Duration("discord.ready_timeout", cfg.Discord.ReadyTimeout, 30*time.Second)
	if err != nil {
		return discord.Config{}, err
	}
	commands := true
	if cfg.Discord.Commands != nil {
		commands = *cfg.Discord.Commands
	}
	return discord.Config{
		Token:           cfg.Discord.Token,
		ChannelID:       cfg.Discord.ChannelID,
		ReadyTimeout:    ready,
		CommandsEnabled: commands,
	}, nil
}

func mapRelayConfig(cfg *config.Config) (relay.Config, error) {
	interval, err := config.Duration("relay.check_interval", cfg.Relay.CheckInterval, 5*time.Minute)
	if err != nil {
		return relay.Config{}, err
	}
	pace, err := config.Duration("relay.pace", cfg.Relay.Pace, time.Second)
	if err != nil {
		return relay.Config{}, err
	}
	onlyUnread := true
	if cfg.GitHub.OnlyUnread != nil {
		onlyUnread = *cfg.GitHub.OnlyUnread
	}
	return relay.Config{
		CheckInterval:  interval,
		Pace:           pace,
		OnlyUnread:     onlyUnread,
		SeenMaxEntries: cfg.Relay.SeenMaxEntries,
		SeenPruneTo:    cfg.Relay.SeenPruneTo,
	}, nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Mirror: logx.MirrorConfig{
			Enabled:    cfg.Logging.Discord.Enabled,
			MinLevel:   cfg.Logging.Discord.MinLevel,
			RatePerSec: cfg.Logging.Discord.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	if cfg.Storage == nil {
		return storage.Config{}, nil
	}
	busy, err := config.Duration("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapPprofConfig(cfg *config.Config) pprof.Config {
	return pprof.Config{
		Enabled:       cfg.Pprof.Enabled,
		Addr:          cfg.Pprof.Addr,
		AllowInsecure: cfg.Pprof.AllowInsecure,
	}
}
