package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ghrelay/pkg/logx"
)

const DefaultAPIBase = "https://api.github.com"

// ErrUnavailable wraps every fetch failure (network, auth, rate limit).
// The relay treats it as recoverable: the tick is skipped and the next
// scheduled tick retries naturally.
var ErrUnavailable = errors.New("github unavailable")

type Config struct {
	Token   string
	APIBase string        // default: DefaultAPIBase
	Timeout time.Duration // per-fetch; default 15s
}

// Client fetches the authenticated user's notification inbox.
type Client struct {
	http  *http.Client
	base  string
	token string
	log   logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github token is empty")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		http:  &http.Client{Timeout: timeout},
		base:  base,
		token: cfg.Token,
		log:   log,
	}, nil
}

// Fetch returns the current inbox snapshot in API order.
//
// onlyUnread maps to all=false; a non-zero since narrows the window and is
// only applied in unread-only mode (matching the watermark contract).
func (c *Client) Fetch(ctx context.Context, onlyUnread bool, since time.Time) ([]Notification, error) {
	q := url.Values{}
	q.Set("all", fmt.Sprintf("%t", !onlyUnread))
	q.Set("participating", "false")
	q.Set("per_page", "50")
	if onlyUnread && !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/notifications?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list []Notification
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return list, nil
}
