package boards

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"go.uber.org/zap"
)

const greenhouseBoard = "greenhouse"

// Greenhouse scrapes a company board at boards.greenhouse.io/<slug>.
type Greenhouse struct {
	client *Client
	// BaseURL is overridable in tests.
	BaseURL string
}

func NewGreenhouse(client *Client) *Greenhouse {
	return &Greenhouse{
		client:  client,
		BaseURL: "https://boards.greenhouse.io",
	}
}

func (s *Greenhouse) Name() string { return greenhouseBoard }

func (s *Greenhouse) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	slug := strings.TrimSpace(q.Slug)
	if slug == "" {
		return nil, fmt.Errorf("greenhouse board requires a company slug")
	}

	doc, err := s.client.GetDocument(ctx, fmt.Sprintf("%s/%s", s.BaseURL, slug))
	if err != nil {
		return nil, fmt.Errorf("greenhouse board %s: %w", slug, err)
	}

	// Board pages link postings as /<slug>/jobs/<id> anchors.
	seen := map[string]bool{}
	var out []*jobs.Posting

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if q.Limit > 0 && len(out) >= q.Limit {
			return false
		}

		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = s.BaseURL + href
		}
		if !strings.Contains(strings.ToLower(abs), "/jobs/") {
			return true
		}
		if seen[abs] {
			return true
		}
		seen[abs] = true

		title := cleanText(a.Text())
		if title == "" || !matchesKeywords(title, q.Keywords) {
			return true
		}

		posting := &jobs.Posting{
			Key:     jobs.Key(abs, title, slug),
			Title:   title,
			Company: slug,
			Board:   greenhouseBoard,
			URL:     abs,
		}
		s.fillDescription(ctx, posting)
		out = append(out, posting)

		return true
	})

	return out, nil
}

// fillDescription fetches the posting page and extracts its text. A failed
// fetch keeps the posting with an empty description.
func (s *Greenhouse) fillDescription(ctx context.Context, posting *jobs.Posting) {
	doc, err := s.client.GetDocument(ctx, posting.URL)
	if err != nil {
		s.client.logger.Debug("fetching greenhouse description failed",
			zap.String("url", posting.URL),
			zap.Error(err),
		)
		return
	}

	content := doc.Find("#content")
	if content.Length() == 0 {
		content = doc.Find("div.job__description")
	}
	if content.Length() == 0 {
		return
	}

	posting.Description = cleanText(content.Text())

	if location := cleanText(doc.Find(".location").First().Text()); location != "" {
		posting.Location = location
	}
}
