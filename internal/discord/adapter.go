// Package discord is the delivery sink: it renders GitHub notifications as
// embeds and sends them to one fixed channel over a discordgo session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"ghrelay/internal/github"
	"ghrelay/pkg/logx"
)

// ErrDeliveryFailed wraps every failed send (channel missing, permissions,
// rate limit). The relay skips the item and retries it on a later tick.
var ErrDeliveryFailed = errors.New("discord delivery failed")

type Config struct {
	Token     string
	ChannelID string
	// ReadyTimeout bounds WaitReady. Default 30s.
	ReadyTimeout time.Duration
	// CommandsEnabled turns on the !check/!status chat commands. Needs the
	// message-content intent granted to the bot.
	CommandsEnabled bool
}

type Adapter struct {
	cfg Config
	log logx.Logger

	session *discordgo.Session

	readyOnce sync.Once
	ready     chan struct{}

	runMu   sync.Mutex
	running bool
	runCtx  context.Context

	relayMu sync.Mutex
	relay   Relay
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	if strings.TrimSpace(cfg.ChannelID) == "" {
		return nil, errors.New("discord channel_id is empty")
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	// Without commands this is a send-only bot and guild metadata is enough.
	s.Identify.Intents = discordgo.IntentsGuilds
	if cfg.CommandsEnabled {
		s.Identify.Intents |= discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	}

	a := &Adapter{cfg: cfg, log: log, session: s, ready: make(chan struct{})}
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.readyOnce.Do(func() {
			a.log.Info("discord gateway ready", logx.String("user", r.User.String()))
			close(a.ready)
		})
	})
	if cfg.CommandsEnabled {
		s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			a.handleMessage(m)
		})
	}
	return a, nil
}

// Start opens the gateway connection. Readiness is signaled asynchronously
// via Ready().
func (a *Adapter) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return nil
	}
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	a.running = true
	a.runCtx = ctx
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	_ = ctx
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	return a.session.Close()
}

// Ready closes once the gateway ready event has arrived.
func (a *Adapter) Ready() <-chan struct{} { return a.ready }

// WaitReady blocks until the session is usable, ctx is done, or the
// configured ready timeout elapses.
func (a *Adapter) WaitReady(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.ReadyTimeout):
		return fmt.Errorf("discord not ready after %s", a.cfg.ReadyTimeout)
	}
}

// Deliver renders one notification and sends it to the configured channel.
func (a *Adapter) Deliver(ctx context.Context, n github.Notification, link string) error {
	embed := buildEmbed(n, link)
	_, err := a.session.ChannelMessageSendEmbed(a.cfg.ChannelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// MirrorLogLine implements logx.MirrorSender so warn+ log records can be
// mirrored into the channel.
func (a *Adapter) MirrorLogLine(ctx context.Context, line string) error {
	a.runMu.Lock()
	running := a.running
	a.runMu.Unlock()
	if !running {
		return nil
	}
	_, err := a.session.ChannelMessageSend(a.cfg.ChannelID, line, discordgo.WithContext(ctx))
	return err
}
