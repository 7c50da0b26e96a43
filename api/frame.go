package api

import "context"

// Frame is the public interface of a frame within a page's frame tree.
type Frame interface {
	ChildFrames() []Frame
	Click(ctx context.Context, selector string, opts *ClickOptions) error
	Content(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, expression string, arg any) (any, error)
	Fill(ctx context.Context, selector, value string, opts *FillOptions) error
	Goto(ctx context.Context, url string, opts *GotoOptions) (Response, error)
	Name() string
	ParentFrame() Frame
	Query(ctx context.Context, selector string) (ElementHandle, error)
	Title(ctx context.Context) (string, error)
	URL() string
}
