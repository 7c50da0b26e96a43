package api

import "context"

// ElementHandle is the public interface of a handle to a DOM element held
// alive on the server side until disposed.
type ElementHandle interface {
	Click(ctx context.Context, opts *ClickOptions) error
	Dispose()
	Fill(ctx context.Context, value string, opts *FillOptions) error
	TextContent(ctx context.Context) (string, error)
}
