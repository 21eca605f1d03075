package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"ghrelay/internal/relay"
	"ghrelay/pkg/logx"
)

// Relay is the surface the chat commands drive. Satisfied by *relay.Service.
type Relay interface {
	CheckNow(ctx context.Context)
	LastTick() relay.TickStats
	Interval() time.Duration
}

const (
	cmdCheck  = "!check"
	cmdStatus = "!status"
)

// BindRelay installs the relay behind the command surface. Commands arriving
// before the bind (or with commands disabled) are ignored.
func (a *Adapter) BindRelay(r Relay) {
	a.relayMu.Lock()
	a.relay = r
	a.relayMu.Unlock()
}

func (a *Adapter) boundRelay() Relay {
	a.relayMu.Lock()
	defer a.relayMu.Unlock()
	return a.relay
}

func parseCommand(content string) (string, bool) {
	switch strings.TrimSpace(content) {
	case cmdCheck:
		return cmdCheck, true
	case cmdStatus:
		return cmdStatus, true
	}
	return "", false
}

// handleMessage runs on discordgo's per-event goroutine, so blocking on a
// manual check here is fine.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	// Commands only work in the notification channel, like the original bot.
	if m.ChannelID != a.cfg.ChannelID {
		return
	}
	cmd, ok := parseCommand(m.Content)
	if !ok {
		return
	}
	r := a.boundRelay()
	if r == nil {
		return
	}

	a.runMu.Lock()
	running, ctx := a.running, a.runCtx
	a.runMu.Unlock()
	if !running {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch cmd {
	case cmdCheck:
		a.log.Info("manual check requested", logx.String("user", m.Author.Username))
		a.say(ctx, "🔍 Checking for GitHub notifications...")
		before := r.LastTick()
		r.CheckNow(ctx)
		a.say(ctx, checkReply(before, r.LastTick()))
	case cmdStatus:
		_, err := a.session.ChannelMessageSendEmbed(a.cfg.ChannelID,
			statusEmbed(r.LastTick(), r.Interval(), a.cfg.ChannelID),
			discordgo.WithContext(ctx))
		if err != nil {
			a.log.Warn("status reply failed", logx.Err(err))
		}
	}
}

func (a *Adapter) say(ctx context.Context, msg string) {
	if _, err := a.session.ChannelMessageSend(a.cfg.ChannelID, msg, discordgo.WithContext(ctx)); err != nil {
		a.log.Warn("command reply failed", logx.Err(err))
	}
}

// checkReply summarizes a manual check. A skipped or failed tick leaves the
// stats untouched, which the timestamp comparison detects.
func checkReply(before, after relay.TickStats) string {
	if !after.At.After(before.At) {
		return "❌ Check did not complete (already running or the inbox fetch failed)."
	}
	if after.Delivered > 0 {
		return fmt.Sprintf("✅ Sent %d new notifications!", after.Delivered)
	}
	return "📭 No new notifications found."
}

func statusEmbed(st relay.TickStats, interval time.Duration, channelID string) *discordgo.MessageEmbed {
	lastCheck := "never"
	if !st.At.IsZero() {
		// Discord renders <t:unix:R> as a relative time.
		lastCheck = fmt.Sprintf("<t:%d:R>", st.At.Unix())
	}
	return &discordgo.MessageEmbed{
		Title:     "🤖 GitHub Notification Relay Status",
		Color:     defaultStyle.color,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Check Interval", Value: interval.String(), Inline: true},
			{Name: "Channel", Value: "<#" + channelID + ">", Inline: true},
			{Name: "Last Check", Value: lastCheck, Inline: true},
			{Name: "Fetched", Value: fmt.Sprintf("%d", st.Fetched), Inline: true},
			{Name: "Delivered", Value: fmt.Sprintf("%d", st.Delivered), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", st.Failed), Inline: true},
		},
	}
}
