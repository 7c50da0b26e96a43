package api

import "gopkg.in/guregu/null.v3"

// GotoOptions configure a navigation. Timeout overrides the context's
// default navigation timeout when set; zero is a valid override, which is
// why the field is nullable.
type GotoOptions struct {
	Timeout   null.Int    `json:"timeout,omitempty"` // milliseconds
	WaitUntil string      `json:"waitUntil,omitempty"`
	Referer   null.String `json:"referer,omitempty"`
}

// ClickOptions configure a click action.
type ClickOptions struct {
	Button     string   `json:"button,omitempty"`
	ClickCount null.Int `json:"clickCount,omitempty"`
	Delay      null.Int `json:"delay,omitempty"` // milliseconds between down and up
	Timeout    null.Int `json:"timeout,omitempty"`
}

// FillOptions configure a fill action.
type FillOptions struct {
	Force   bool     `json:"force,omitempty"`
	Timeout null.Int `json:"timeout,omitempty"`
}

// ScreenshotOptions configure a screenshot capture.
type ScreenshotOptions struct {
	FullPage bool     `json:"fullPage,omitempty"`
	Format   string   `json:"type,omitempty"` // "png" or "jpeg"
	Quality  null.Int `json:"quality,omitempty"`
}
