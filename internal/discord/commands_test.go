package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"ghrelay/internal/relay"
	"ghrelay/pkg/logx"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		content string
		cmd     string
		ok      bool
	}{
		{"!check", cmdCheck, true},
		{"  !status  ", cmdStatus, true},
		{"!checknow", "", false},
		{"check", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		cmd, ok := parseCommand(c.content)
		if cmd != c.cmd || ok != c.ok {
			t.Errorf("parseCommand(%q) = (%q, %v), want (%q, %v)", c.content, cmd, ok, c.cmd, c.ok)
		}
	}
}

func TestCheckReply(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	same := relay.TickStats{At: base}
	if got := checkReply(same, same); !strings.Contains(got, "did not complete") {
		t.Errorf("unchanged tick: %q", got)
	}

	after := relay.TickStats{At: base.Add(time.Second), Delivered: 3}
	if got := checkReply(same, after); got != "✅ Sent 3 new notifications!" {
		t.Errorf("delivered: %q", got)
	}

	empty := relay.TickStats{At: base.Add(time.Second)}
	if got := checkReply(same, empty); got != "📭 No new notifications found." {
		t.Errorf("nothing new: %q", got)
	}
}

func TestStatusEmbed(t *testing.T) {
	st := relay.TickStats{
		At:        time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Fetched:   5,
		Delivered: 2,
		Failed:    1,
	}
	e := statusEmbed(st, 5*time.Minute, "123456")

	want := map[string]string{
		"Check Interval": "5m0s",
		"Channel":        "<#123456>",
		"Last Check":     "<t:1788091200:R>",
		"Fetched":        "5",
		"Delivered":      "2",
		"Failed":         "1",
	}
	for _, f := range e.Fields {
		if v, ok := want[f.Name]; ok && f.Value != v {
			t.Errorf("field %s = %q, want %q", f.Name, f.Value, v)
		}
		delete(want, f.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing fields: %v", want)
	}

	e = statusEmbed(relay.TickStats{}, time.Minute, "1")
	for _, f := range e.Fields {
		if f.Name == "Last Check" && f.Value != "never" {
			t.Errorf("zero tick last check = %q", f.Value)
		}
	}
}

func TestCommandIntents(t *testing.T) {
	cfg := Config{Token: "t", ChannelID: "1", CommandsEnabled: true}
	a, err := New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := a.session.Identify.Intents
	if got&discordgo.IntentMessageContent == 0 || got&discordgo.IntentsGuildMessages == 0 {
		t.Fatalf("intents %d missing message intents", got)
	}

	cfg.CommandsEnabled = false
	a, err = New(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.session.Identify.Intents; got != discordgo.IntentsGuilds {
		t.Fatalf("send-only intents = %d, want guilds only", got)
	}
}
