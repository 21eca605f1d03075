package discord

import (
	"testing"
	"time"

	"ghrelay/internal/github"
)

func TestBuildEmbed(t *testing.T) {
	t.Parallel()

	n := github.Notification{
		ID:        "42",
		Reason:    "review_requested",
		UpdatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Subject: github.Subject{
			Title: "Add retry budget",
			Type:  "PullRequest",
		},
		Repository: github.Repository{
			FullName: "acme/widgets",
			HTMLURL:  "https://github.com/acme/widgets",
			Owner:    github.Owner{Login: "acme", AvatarURL: "https://avatars.test/acme.png"},
		},
	}

	e := buildEmbed(n, "https://github.com/acme/widgets/pull/7")

	if e.Title != "🔀 Add retry budget" {
		t.Fatalf("title = %q", e.Title)
	}
	if e.URL != "https://github.com/acme/widgets/pull/7" {
		t.Fatalf("url = %q", e.URL)
	}
	if e.Color != 0x2ecc71 {
		t.Fatalf("color = %#x", e.Color)
	}
	if len(e.Fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(e.Fields))
	}
	if e.Fields[0].Value != "[acme/widgets](https://github.com/acme/widgets)" {
		t.Fatalf("repository field = %q", e.Fields[0].Value)
	}
	if e.Fields[1].Value != "Pull Request" {
		t.Fatalf("type field = %q", e.Fields[1].Value)
	}
	if e.Fields[2].Value != "Review Requested" {
		t.Fatalf("reason field = %q", e.Fields[2].Value)
	}
	if e.Timestamp != "2026-08-30T12:00:00Z" {
		t.Fatalf("timestamp = %q", e.Timestamp)
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://avatars.test/acme.png" {
		t.Fatalf("thumbnail = %+v", e.Thumbnail)
	}
}

func TestBuildEmbedDefaults(t *testing.T) {
	t.Parallel()

	n := github.Notification{
		Subject:    github.Subject{Type: "CheckSuite"},
		Repository: github.Repository{FullName: "acme/widgets"},
	}
	e := buildEmbed(n, "")

	if e.Title != "📢 (no title)" {
		t.Fatalf("title = %q", e.Title)
	}
	if e.Color != defaultStyle.color {
		t.Fatalf("color = %#x", e.Color)
	}
	if e.Fields[2].Value != "Unknown" {
		t.Fatalf("reason field = %q", e.Fields[2].Value)
	}
	if e.Thumbnail != nil {
		t.Fatalf("unexpected thumbnail %+v", e.Thumbnail)
	}
}

func TestReasonLabel(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"mention":          "Mention",
		"review_requested": "Review Requested",
		"ci_activity":      "Ci Activity",
		"":                 "Unknown",
	}
	for in, want := range tests {
		if got := reasonLabel(in); got != want {
			t.Fatalf("reasonLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
