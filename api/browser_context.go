package api

import (
	"context"
	"time"
)

// BrowserContext is the public interface of an isolated browsing session.
type BrowserContext interface {
	Browser() Browser
	Close(ctx context.Context) error
	NewPage(ctx context.Context) (Page, error)
	On(event string, fn func(data any)) (off func())
	Pages() []Page
	SetDefaultNavigationTimeout(timeout time.Duration)
	SetDefaultTimeout(timeout time.Duration)
}
