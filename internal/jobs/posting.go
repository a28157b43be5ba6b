package jobs

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Posting is a single job listing fetched from a board. It is immutable once
// returned by a source adapter.
type Posting struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Board       string `json:"board"`
	URL         string `json:"url,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
}

type Postings struct {
	Items []*Posting
}

// Key derives the identity key used for deduplication. The key is
// board-independent: the canonicalized posting URL when present, otherwise
// the lowercased title+company composite, so the same job seen on two boards
// under the same link (or with no link at all) collapses to one entry.
func Key(postingURL, title, company string) string {
	if canonical := canonicalURL(postingURL); canonical != "" {
		return hash("url:" + canonical)
	}

	return hash("tc:" + strings.ToLower(strings.TrimSpace(title)) + "\n" + strings.ToLower(strings.TrimSpace(company)))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum[:])
}

// canonicalURL strips query parameters and fragments so tracking parameters
// do not produce distinct keys for the same posting.
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) Append(items ...*Posting) {
	p.Items = append(p.Items, items...)
}

func (p *Postings) FindByKey(key string) *Posting {
	for _, posting := range p.Items {
		if posting.Key == key {
			return posting
		}
	}
	return nil
}

// DumpToTmpFile writes the postings as indented JSON to a temporary file and
// returns its name.
func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}
