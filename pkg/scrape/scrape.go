// Package scrape turns a recipe URL into structured recipe fields. It prefers
// schema.org Recipe JSON-LD embedded in the page and falls back to readability
// extraction when a site carries no structured data.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// Result holds the structured fields extracted from one recipe page.
type Result struct {
	Title        string
	Ingredients  []string
	Instructions string
	Image        string
	Author       string
}

// ScrapeError reports a per-URL extraction failure. Batch callers catch it
// and continue with the next URL.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// maxBodySize caps HTML downloads to prevent OOM from untrusted URLs.
const maxBodySize = 10 * 1024 * 1024

// HTTPScraper fetches recipe pages over HTTP.
type HTTPScraper struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPScraper returns a scraper with a bounded-timeout client.
func NewHTTPScraper() *HTTPScraper {
	return &HTTPScraper{
		Client: &http.Client{Timeout: 30 * time.Second},
		// Mimic a real browser to avoid being blocked (e.g. 403 Forbidden or Cloudflare)
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Scrape fetches the page at rawURL and extracts recipe fields.
func (s *HTTPScraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, &ScrapeError{URL: rawURL, Err: err}
	}

	if res := extractJSONLD(body); res != nil {
		return res, nil
	}

	res, err := s.fallbackReadability(body, rawURL)
	if err != nil {
		return nil, &ScrapeError{URL: rawURL, Err: err}
	}
	return res, nil
}

func (s *HTTPScraper) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("content length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) >= maxBodySize {
		return nil, fmt.Errorf("response body exceeded limit of %d bytes", maxBodySize)
	}
	return body, nil
}

// fallbackReadability recovers what it can from pages without recipe
// structured data: title, byline and lead image, with the readable text as
// instructions and no ingredient lines.
func (s *HTTPScraper) fallbackReadability(body []byte, rawURL string) (*Result, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		return nil, fmt.Errorf("page has no recipe data and no title")
	}
	return &Result{
		Title:        title,
		Instructions: strings.TrimSpace(article.TextContent),
		Image:        article.Image,
		Author:       strings.TrimSpace(article.Byline),
	}, nil
}
