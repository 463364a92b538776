package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// Gateway reads, updates and forks the remote settings document.
type Gateway interface {
	Fetch(ctx context.Context, id string) (m.Document, error)
	Update(ctx context.Context, id, description string, files map[string]string) (m.Document, error)
	Fork(ctx context.Context, id string) (m.Document, error)
}

type gateway struct {
	client adapter.GistClient
}

// NewGateway wraps client. A gateway is built per operation so a token change
// in the configuration is picked up on the next call.
func NewGateway(client adapter.GistClient, token string) Gateway {
	if token != "" {
		slog.Debug("creating gist client", "token", MaskToken(token))
	} else {
		slog.Error("creating gist client without token")
	}

	return &gateway{client: client}
}

func (g *gateway) Fetch(ctx context.Context, id string) (m.Document, error) {
	gist, err := g.client.Get(ctx, id)
	if err != nil {
		return m.Document{}, err
	}

	return toDocument(gist), nil
}

func (g *gateway) Update(ctx context.Context, id, description string, files map[string]string) (m.Document, error) {
	slog.Debug("updating gist", "id", id, "files", len(files))

	gist, err := g.client.Edit(ctx, id, description, files)
	if err != nil {
		return m.Document{}, err
	}

	return toDocument(gist), nil
}

func (g *gateway) Fork(ctx context.Context, id string) (m.Document, error) {
	gist, err := g.client.Fork(ctx, id)
	if err != nil {
		return m.Document{}, err
	}

	return toDocument(gist), nil
}

func toDocument(gist *adapter.Gist) m.Document {
	if gist == nil {
		return m.Document{}
	}

	doc := m.Document{
		ID:    gist.ID,
		Files: make(map[string]string, len(gist.Files)),
		URL:   gist.HTMLURL,
	}

	for name, file := range gist.Files {
		doc.Files[name] = file.Content
	}

	if len(gist.History) > 0 {
		doc.Version = gist.History[0].Version
	}

	return doc
}

// MaskToken keeps the first and last four characters of token.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}

	return token[:4] + "..." + token[len(token)-4:]
}

// TranslateError turns a remote error into the text shown to the user. GitHub
// answers with a JSON body carrying a message; "Not Found" means a wrong id.
func TranslateError(err error) string {
	if err == nil {
		return ""
	}

	raw := err.Error()

	var httpErr *adapter.HTTPError
	if errors.As(err, &httpErr) {
		raw = httpErr.Error()
	}

	var body struct {
		Message string `json:"message"`
	}

	if jsonErr := json.Unmarshal([]byte(raw), &body); jsonErr != nil || body.Message == "" {
		return raw
	}

	if body.Message == "Not Found" {
		return "Gist ID Not Found"
	}

	return body.Message
}

// errInvalidDocument wraps ErrInvalidDocument with what was missing.
func errInvalidDocument(what string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, what)
}
