package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGistAPIURL is the public GitHub REST endpoint.
const DefaultGistAPIURL = "https://api.github.com"

const userAgent = "settingsync"

// Gist is the subset of the GitHub gist resource the engine reads.
type Gist struct {
	ID      string              `json:"id"`
	Files   map[string]GistFile `json:"files"`
	History []GistCommit        `json:"history"`
	HTMLURL string              `json:"html_url"`
}

// GistFile holds a single file's content.
type GistFile struct {
	Content string `json:"content"`
}

// GistCommit is one entry of a gist's revision history.
type GistCommit struct {
	Version string `json:"version"`
}

// GistClient is the raw remote store API.
type GistClient interface {
	Get(ctx context.Context, id string) (*Gist, error)
	Edit(ctx context.Context, id, description string, files map[string]string) (*Gist, error)
	Fork(ctx context.Context, id string) (*Gist, error)
}

// HTTPError is returned for non-2xx responses. Its message is the response
// body, which for GitHub is a JSON document carrying a "message" field.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}

	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPGistClient talks to the GitHub gists REST API.
type HTTPGistClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGistClient builds a client for baseURL authenticating with token. An
// empty token sends unauthenticated requests.
func NewHTTPGistClient(baseURL, token string) *HTTPGistClient {
	if baseURL == "" {
		baseURL = DefaultGistAPIURL
	}

	return &HTTPGistClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Get implements GistClient.
func (c *HTTPGistClient) Get(ctx context.Context, id string) (*Gist, error) {
	return c.do(ctx, http.MethodGet, gistPath(id), nil)
}

// Edit implements GistClient.
func (c *HTTPGistClient) Edit(ctx context.Context, id, description string, files map[string]string) (*Gist, error) {
	payload := struct {
		Description string              `json:"description,omitempty"`
		Files       map[string]GistFile `json:"files"`
	}{
		Description: description,
		Files:       make(map[string]GistFile, len(files)),
	}

	for name, content := range files {
		payload.Files[name] = GistFile{Content: content}
	}

	return c.do(ctx, http.MethodPatch, gistPath(id), payload)
}

// Fork implements GistClient.
func (c *HTTPGistClient) Fork(ctx context.Context, id string) (*Gist, error) {
	return c.do(ctx, http.MethodPost, gistPath(id)+"/forks", nil)
}

// gistPath is the resource path of a gist; the id comes from user input.
func gistPath(id string) string {
	return "/gists/" + url.PathEscape(id)
}

func (c *HTTPGistClient) do(ctx context.Context, method, path string, payload any) (*Gist, error) {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var gist Gist
	if err := json.Unmarshal(data, &gist); err != nil {
		return nil, fmt.Errorf("failed to decode gist: %w", err)
	}

	return &gist, nil
}
