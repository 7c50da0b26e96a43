// Package api defines the public interfaces of the understudy driver.
package api

import "context"

// Browser is the public interface of a connected browser server.
type Browser interface {
	Close(ctx context.Context) error
	Contexts() []BrowserContext
	IsConnected() bool
	Name() string
	NewContext(ctx context.Context, opts *BrowserContextOptions) (BrowserContext, error)
	On(event string, fn func(data any)) (off func())
	Version() string
}

// BrowserContextOptions configure a new browser context.
type BrowserContextOptions struct {
	UserAgent         string `json:"userAgent,omitempty"`
	Locale            string `json:"locale,omitempty"`
	TimezoneID        string `json:"timezoneId,omitempty"`
	IgnoreHTTPSErrors bool   `json:"ignoreHTTPSErrors,omitempty"`
}
