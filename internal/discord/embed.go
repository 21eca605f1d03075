package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"ghrelay/internal/github"
)

// Per-subject-type presentation. Colors follow the common Discord palette.
type subjectStyle struct {
	emoji string
	color int
}

var subjectStyles = map[string]subjectStyle{
	"issue":            {emoji: "🐛", color: 0xe74c3c}, // red
	"pullrequest":      {emoji: "🔀", color: 0x2ecc71}, // green
	"release":          {emoji: "🚀", color: 0xf1c40f}, // gold
	"discussion":       {emoji: "💬", color: 0x3498db}, // blue
	"securityadvisory": {emoji: "🔒", color: 0x992d22}, // dark red
}

var defaultStyle = subjectStyle{emoji: "📢", color: 0x3498db}

func buildEmbed(n github.Notification, link string) *discordgo.MessageEmbed {
	style, ok := subjectStyles[strings.ToLower(n.Subject.Type)]
	if !ok {
		style = defaultStyle
	}

	title := n.Subject.Title
	if title == "" {
		title = "(no title)"
	}

	embed := &discordgo.MessageEmbed{
		Title: style.emoji + " " + title,
		URL:   link,
		Color: style.color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Repository", Value: repositoryField(n.Repository), Inline: true},
			{Name: "Type", Value: typeLabel(n.Subject.Type), Inline: true},
			{Name: "Reason", Value: reasonLabel(n.Reason), Inline: true},
		},
	}
	if !n.UpdatedAt.IsZero() {
		embed.Timestamp = n.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if n.Repository.Owner.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.Repository.Owner.AvatarURL}
	}
	return embed
}

func repositoryField(r github.Repository) string {
	name := r.FullName
	if name == "" {
		name = r.Name
	}
	if name == "" {
		return "unknown"
	}
	if r.HTMLURL != "" {
		return "[" + name + "](" + r.HTMLURL + ")"
	}
	return name
}

// typeLabel splits CamelCase subject types into words ("PullRequest" ->
// "Pull Request").
func typeLabel(t string) string {
	if t == "" {
		return "Unknown"
	}
	var b strings.Builder
	for i, r := range t {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// reasonLabel turns API reasons like "review_requested" into "Review Requested".
func reasonLabel(reason string) string {
	if reason == "" {
		return "Unknown"
	}
	words := strings.Split(reason, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
