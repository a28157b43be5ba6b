package boards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"go.uber.org/zap"
)

const leverBoard = "lever"

// Lever reads the public postings API at api.lever.co/v0/postings/<slug>.
type Lever struct {
	client *Client
	// BaseURL is overridable in tests.
	BaseURL string
}

func NewLever(client *Client) *Lever {
	return &Lever{
		client:  client,
		BaseURL: "https://api.lever.co",
	}
}

func (s *Lever) Name() string { return leverBoard }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
}

func (s *Lever) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	slug := strings.TrimSpace(q.Slug)
	if slug == "" {
		return nil, fmt.Errorf("lever board requires a company slug")
	}

	var items []leverPosting
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.BaseURL, slug)
	if err := s.client.GetJSON(ctx, url, &items); err != nil {
		return nil, fmt.Errorf("lever board %s: %w", slug, err)
	}

	var out []*jobs.Posting
	for _, item := range items {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}

		title := cleanText(item.Text)
		if title == "" || !matchesKeywords(title, q.Keywords) {
			continue
		}

		posting := &jobs.Posting{
			Key:         jobs.Key(item.HostedURL, title, slug),
			Title:       title,
			Company:     slug,
			Location:    cleanText(item.Categories.Location),
			Description: s.descriptionText(item),
			Board:       leverBoard,
			URL:         item.HostedURL,
		}
		if item.CreatedAt > 0 {
			posting.PostedAt = time.UnixMilli(item.CreatedAt).UTC().Format("2006-01-02")
		}

		out = append(out, posting)
	}

	return out, nil
}

func (s *Lever) descriptionText(item leverPosting) string {
	if plain := cleanText(item.DescriptionPlain); plain != "" {
		return plain
	}
	if strings.TrimSpace(item.Description) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Description))
	if err != nil {
		s.client.logger.Debug("parsing lever description html failed",
			zap.String("url", item.HostedURL),
			zap.Error(err),
		)
		return ""
	}

	return cleanText(doc.Text())
}
