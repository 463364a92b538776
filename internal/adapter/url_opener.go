package adapter

import (
	"context"

	"github.com/pkg/browser"
)

// URLOpener opens a URL outside the tool (a browser).
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

// BrowserOpener opens URLs with the system browser.
type BrowserOpener struct{}

// NewBrowserOpener returns a BrowserOpener.
func NewBrowserOpener() *BrowserOpener {
	return &BrowserOpener{}
}

// Open implements URLOpener.
func (o *BrowserOpener) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return browser.OpenURL(url)
}
