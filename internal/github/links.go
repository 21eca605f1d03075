package github

import "strings"

// ResolveLink derives the human-facing web URL for a notification's subject.
//
// Pure function: it only rewrites the subject's API locator, never calls the
// API. Unrecognized subject types (Discussion, CheckSuite, ...) and subjects
// without a locator fall back to the repository page.
func (c *Client) ResolveLink(n Notification) string {
	return ResolveLink(n)
}

func ResolveLink(n Notification) string {
	repo := strings.TrimRight(n.Repository.HTMLURL, "/")
	loc := lastSegment(n.Subject.URL)
	if repo == "" {
		return ""
	}
	if loc == "" {
		return repo
	}
	switch strings.ToLower(n.Subject.Type) {
	case "issue":
		return repo + "/issues/" + loc
	case "pullrequest":
		return repo + "/pull/" + loc
	case "commit":
		return repo + "/commit/" + loc
	case "release":
		return repo + "/releases/tag/" + loc
	default:
		return repo
	}
}

func lastSegment(rawURL string) string {
	s := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if s == "" {
		return ""
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
