package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ovsienko/jobsieve/internal/jobs"
)

// ErrUnavailable marks a board that blocked or errored the request. The
// driver records it and moves on to the next board; there is no automatic
// retry.
var ErrUnavailable = errors.New("board unavailable")

// Query carries the search parameters for one fetch.
type Query struct {
	Keywords string
	Location string
	Limit    int
	Offset   int
	// Slug is the company board identifier for ATS-style boards
	// (boards.greenhouse.io/<slug>, api.lever.co/v0/postings/<slug>).
	Slug string
}

// Source fetches normalized postings for a query. Implementations never leak
// board-specific record shapes; the driver never branches on board identity.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error)
}

// New returns the adapter for the given board name.
func New(name string, client *Client) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linkedin":
		return NewLinkedIn(client), nil
	case "greenhouse":
		return NewGreenhouse(client), nil
	case "lever":
		return NewLever(client), nil
	default:
		return nil, fmt.Errorf("unknown board %q", name)
	}
}

// matchesKeywords reports whether the title contains at least one of the
// space-separated keyword tokens. An empty keywords string matches anything.
func matchesKeywords(title, keywords string) bool {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return true
	}

	title = strings.ToLower(title)
	for _, token := range strings.Fields(strings.ToLower(keywords)) {
		if strings.Contains(title, token) {
			return true
		}
	}
	return false
}
