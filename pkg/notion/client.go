// Package notion publishes recipe documents as pages in a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Section is one titled text block of a published document.
type Section struct {
	Heading string
	Body    string
}

// Document is the external-schema view of a recipe: a page titled by the
// recipe title, with optional image and source-link references and a text
// section per field.
type Document struct {
	Title     string
	ImageURL  string
	SourceURL string
	Sections  []Section
}

// SyncError reports a failed publish for one document.
type SyncError struct {
	Title      string
	StatusCode int
	Message    string
	Err        error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sync %q: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("sync %q: notion api returned status %d: %s", e.Title, e.StatusCode, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Err }

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Client talks to the Notion pages API.
type Client struct {
	Token      string
	DatabaseID string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the given integration token and target
// database.
func NewClient(token, databaseID string) *Client {
	return &Client{
		Token:      token,
		DatabaseID: databaseID,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Text textContent `json:"text"`
}

type externalFile struct {
	URL string `json:"url"`
}

type fileRef struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	External externalFile `json:"external"`
}

type blockText struct {
	RichText []richText `json:"rich_text"`
}

type pageBlock struct {
	Object    string     `json:"object"`
	Type      string     `json:"type"`
	Heading2  *blockText `json:"heading_2,omitempty"`
	Paragraph *blockText `json:"paragraph,omitempty"`
}

type createPageRequest struct {
	Parent     map[string]string      `json:"parent"`
	Properties map[string]interface{} `json:"properties"`
	Children   []pageBlock            `json:"children"`
}

// Publish creates one page for doc in the configured database.
func (c *Client) Publish(ctx context.Context, doc Document) error {
	payload := createPageRequest{
		Parent: map[string]string{"database_id": c.DatabaseID},
		Properties: map[string]interface{}{
			"Title": map[string]interface{}{
				"title": []richText{{Text: textContent{Content: doc.Title}}},
			},
		},
	}
	if doc.ImageURL != "" {
		payload.Properties["Image URL"] = map[string]interface{}{
			"files": []fileRef{{
				Name:     "Recipe Image",
				Type:     "external",
				External: externalFile{URL: doc.ImageURL},
			}},
		}
	}
	if doc.SourceURL != "" {
		payload.Properties["Source URL"] = map[string]interface{}{"url": doc.SourceURL}
	}
	for _, s := range doc.Sections {
		payload.Children = append(payload.Children,
			pageBlock{
				Object:   "block",
				Type:     "heading_2",
				Heading2: &blockText{RichText: []richText{{Text: textContent{Content: s.Heading}}}},
			},
			pageBlock{
				Object:    "block",
				Type:      "paragraph",
				Paragraph: &blockText{RichText: []richText{{Text: textContent{Content: s.Body}}}},
			},
		)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &SyncError{Title: doc.Title, Err: err}
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return &SyncError{Title: doc.Title, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &SyncError{Title: doc.Title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &apiErr)
		return &SyncError{Title: doc.Title, StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	return nil
}
