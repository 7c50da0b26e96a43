package api

import "context"

// Page is the public interface of a single tab.
type Page interface {
	Click(ctx context.Context, selector string, opts *ClickOptions) error
	Close(ctx context.Context) error
	Content(ctx context.Context) (string, error)
	Fill(ctx context.Context, selector, value string, opts *FillOptions) error
	Goto(ctx context.Context, url string, opts *GotoOptions) (Response, error)
	IsClosed() bool
	Keyboard() Keyboard
	MainFrame() Frame
	On(event string, fn func(data any)) (off func())
	Query(ctx context.Context, selector string) (ElementHandle, error)
	Reload(ctx context.Context, opts *GotoOptions) (Response, error)
	Screenshot(ctx context.Context, opts *ScreenshotOptions) (Artifact, error)
	Title(ctx context.Context) (string, error)
	URL() string
}

// Response reports the outcome of a navigation.
type Response struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	OK     bool   `json:"ok"`
}
