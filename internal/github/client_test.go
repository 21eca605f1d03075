package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"ghrelay/pkg/logx"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{Token: "test-token", APIBase: "https://api.github.test"}, logx.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestFetchQueryAndHeaders(t *testing.T) {
	c := newTestClient(t)

	var gotReq *http.Request
	httpmock.RegisterResponder("GET", "https://api.github.test/notifications",
		func(req *http.Request) (*http.Response, error) {
			gotReq = req
			return httpmock.NewStringResponse(200, `[
				{"id":"101","unread":true,"reason":"mention",
				 "updated_at":"2026-08-30T10:00:00Z",
				 "subject":{"title":"fix crash","url":"https://api.github.test/repos/a/b/issues/5","type":"Issue"},
				 "repository":{"full_name":"a/b","html_url":"https://github.com/a/b"}}
			]`), nil
		})

	since := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	list, err := c.Fetch(context.Background(), true, since)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d notifications, want 1", len(list))
	}
	n := list[0]
	if n.ID != "101" || !n.Unread || n.Reason != "mention" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Subject.Type != "Issue" || n.Repository.FullName != "a/b" {
		t.Fatalf("unexpected subject/repository: %+v", n)
	}

	q := gotReq.URL.Query()
	if q.Get("all") != "false" {
		t.Fatalf("all = %q, want false", q.Get("all"))
	}
	if q.Get("participating") != "false" {
		t.Fatalf("participating = %q, want false", q.Get("participating"))
	}
	if q.Get("per_page") != "50" {
		t.Fatalf("per_page = %q, want 50", q.Get("per_page"))
	}
	if q.Get("since") != "2026-08-30T09:00:00Z" {
		t.Fatalf("since = %q", q.Get("since"))
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := gotReq.Header.Get("X-GitHub-Api-Version"); got != "2022-11-28" {
		t.Fatalf("api version header = %q", got)
	}
}

func TestFetchNoSinceOutsideUnreadMode(t *testing.T) {
	c := newTestClient(t)

	var gotReq *http.Request
	httpmock.RegisterResponder("GET", "https://api.github.test/notifications",
		func(req *http.Request) (*http.Response, error) {
			gotReq = req
			return httpmock.NewStringResponse(200, `[]`), nil
		})

	if _, err := c.Fetch(context.Background(), false, time.Now()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	q := gotReq.URL.Query()
	if q.Get("all") != "true" {
		t.Fatalf("all = %q, want true", q.Get("all"))
	}
	if q.Has("since") {
		t.Fatalf("since must not be set in all mode, got %q", q.Get("since"))
	}
}

func TestFetchErrorStatusIsUnavailable(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "https://api.github.test/notifications",
		httpmock.NewStringResponder(401, `{"message":"Bad credentials"}`))

	_, err := c.Fetch(context.Background(), true, time.Time{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error %v is not ErrUnavailable", err)
	}
}
