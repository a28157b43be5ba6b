package boards

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"go.uber.org/zap"
)

const (
	linkedinBoard = "linkedin"
	// The guest search endpoint returns batches of 25 cards.
	linkedinPageSize     = 25
	linkedinDefaultLimit = 25

	linkedinSearchPath = "/jobs-guest/jobs/api/seeMoreJobPostings/search"
)

// LinkedIn scrapes the guest jobs API, no authentication required.
type LinkedIn struct {
	client *Client
	// BaseURL is overridable in tests.
	BaseURL string
}

func NewLinkedIn(client *Client) *LinkedIn {
	return &LinkedIn{
		client:  client,
		BaseURL: "https://www.linkedin.com",
	}
}

func (s *LinkedIn) Name() string { return linkedinBoard }

func (s *LinkedIn) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = linkedinDefaultLimit
	}

	var out []*jobs.Posting
	for start := q.Offset; len(out) < limit; start += linkedinPageSize {
		doc, err := s.client.GetDocument(ctx, s.searchURL(q, start))
		if err != nil {
			return nil, fmt.Errorf("linkedin search: %w", err)
		}

		page := s.parseSearchPage(doc)
		if len(page) == 0 {
			break
		}

		for _, posting := range page {
			if len(out) >= limit {
				break
			}
			s.fillDescription(ctx, posting)
			out = append(out, posting)
		}
	}

	return out, nil
}

func (s *LinkedIn) searchURL(q Query, start int) string {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("start", strconv.Itoa(start))

	return fmt.Sprintf("%s%s?%s", s.BaseURL, linkedinSearchPath, params.Encode())
}

func (s *LinkedIn) parseSearchPage(doc *goquery.Document) []*jobs.Posting {
	var postings []*jobs.Posting

	doc.Find("li > div.base-card").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("[class*=_title]").Text())
		company := strings.TrimSpace(card.Find(".hidden-nested-link").Text())
		location := strings.TrimSpace(card.Find(".job-search-card__location").Text())
		link := strings.TrimSpace(card.Find("a.base-card__full-link").AttrOr("href", ""))

		if title == "" || company == "" || link == "" {
			return
		}

		postings = append(postings, &jobs.Posting{
			Key:      jobs.Key(link, title, company),
			Title:    title,
			Company:  company,
			Location: location,
			Board:    linkedinBoard,
			URL:      link,
		})
	})

	return postings
}

// fillDescription fetches the posting page and extracts the description text.
// A failed description fetch keeps the posting with an empty description.
func (s *LinkedIn) fillDescription(ctx context.Context, posting *jobs.Posting) {
	doc, err := s.client.GetDocument(ctx, posting.URL)
	if err != nil {
		s.client.logger.Debug("fetching linkedin description failed",
			zap.String("url", posting.URL),
			zap.Error(err),
		)
		return
	}

	markup := doc.Find("section.show-more-less-html .show-more-less-html__markup")
	if markup.Length() == 0 {
		markup = doc.Find(".description__text")
	}

	posting.Description = cleanText(markup.Text())
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
