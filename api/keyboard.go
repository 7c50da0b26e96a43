package api

import "context"

// Keyboard is the public interface of a page's keyboard input device.
type Keyboard interface {
	Down(ctx context.Context, key string) error
	InsertText(ctx context.Context, text string) error
	Press(ctx context.Context, key string) error
	Type(ctx context.Context, text string) error
	Up(ctx context.Context, key string) error
}
