package github

import "testing"

func TestResolveLink(t *testing.T) {
	t.Parallel()

	repo := Repository{HTMLURL: "https://github.com/acme/widgets"}

	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{
			name: "issue",
			n: Notification{
				Subject:    Subject{Type: "Issue", URL: "https://api.github.com/repos/acme/widgets/issues/42"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets/issues/42",
		},
		{
			name: "pull request",
			n: Notification{
				Subject:    Subject{Type: "PullRequest", URL: "https://api.github.com/repos/acme/widgets/pulls/7"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets/pull/7",
		},
		{
			name: "commit",
			n: Notification{
				Subject:    Subject{Type: "Commit", URL: "https://api.github.com/repos/acme/widgets/commits/deadbeef"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets/commit/deadbeef",
		},
		{
			name: "release",
			n: Notification{
				Subject:    Subject{Type: "Release", URL: "https://api.github.com/repos/acme/widgets/releases/v1.2.3"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets/releases/tag/v1.2.3",
		},
		{
			name: "unknown type falls back to repo",
			n: Notification{
				Subject:    Subject{Type: "Discussion", URL: "https://api.github.com/repos/acme/widgets/discussions/3"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets",
		},
		{
			name: "missing locator falls back to repo",
			n: Notification{
				Subject:    Subject{Type: "Issue"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets",
		},
		{
			name: "query string stripped from locator",
			n: Notification{
				Subject:    Subject{Type: "Issue", URL: "https://api.github.com/repos/acme/widgets/issues/42?foo=bar"},
				Repository: repo,
			},
			want: "https://github.com/acme/widgets/issues/42",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLink(tt.n); got != tt.want {
				t.Fatalf("ResolveLink = %q, want %q", got, tt.want)
			}
		})
	}
}
