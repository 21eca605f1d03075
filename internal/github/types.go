package github

import "time"

// Notification is one entry from GET /notifications.
// Field set matches the REST v3 wire shape; unknown fields are ignored.
type Notification struct {
	ID              string     `json:"id"`
	Unread          bool       `json:"unread"`
	Reason          string     `json:"reason"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastReadAt      *time.Time `json:"last_read_at"`
	Subject         Subject    `json:"subject"`
	Repository      Repository `json:"repository"`
	URL             string     `json:"url"`
	SubscriptionURL string     `json:"subscription_url"`
}

// Subject references the entity the notification is about. URL is an API
// locator (api.github.com/repos/...), not a web URL.
type Subject struct {
	Title            string `json:"title"`
	URL              string `json:"url"`
	LatestCommentURL string `json:"latest_comment_url"`
	Type             string `json:"type"` // Issue, PullRequest, Commit, Release, Discussion, ...
}

type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	Owner       Owner  `json:"owner"`
}

type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}
