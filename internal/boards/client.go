package boards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// Boards block obvious bots; a browser user agent keeps the guest
	// endpoints reachable.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	requestTimeout = 30 * time.Second
)

// Client is the HTTP transport shared by all board adapters: one http.Client,
// one per-host rate limiter, one user agent.
type Client struct {
	hc      *http.Client
	limiter *HostLimiter
	logger  *zap.Logger
	// UserAgent can be overridden via configuration.
	UserAgent string
}

func NewClient(logger *zap.Logger, reqPerSec float64, burst int) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		hc:        &http.Client{Timeout: requestTimeout},
		limiter:   NewHostLimiter(reqPerSec, burst),
		logger:    logger,
		UserAgent: browserUserAgent,
	}
}

// GetDocument fetches the URL and parses the body as HTML.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse board html: %w", err)
	}

	return doc, nil
}

// GetJSON fetches the URL and decodes the body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode board response: %w", err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.WaitURL(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("board request", zap.String("url", url))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	return resp, nil
}
