package common

import (
	"context"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// Ensure ElementHandle implements the api.ElementHandle interface.
var _ api.ElementHandle = &ElementHandle{}

// ElementHandle is the proxy of a server-side handle to a single DOM
// element. The element is pinned on the server until Dispose is called or
// its frame goes away.
type ElementHandle struct {
	obj    *channel.Object
	logger *log.Logger
	frame  *Frame
}

// NewElementHandle builds the proxy for an "ElementHandle" object.
func NewElementHandle(obj *channel.Object, logger *log.Logger) (*ElementHandle, error) {
	h := &ElementHandle{
		obj:    obj,
		logger: logger,
	}
	if parent := obj.Parent(); parent != nil {
		if frame, ok := parent.Proxy().(*Frame); ok {
			h.frame = frame
		}
	}
	return h, nil
}

// Click clicks the element.
func (h *ElementHandle) Click(ctx context.Context, opts *api.ClickOptions) error {
	ctx, cancel := h.withDeadline(ctx)
	defer cancel()

	_, err := h.obj.Call(ctx, "click", opts)
	return err
}

// Fill sets the element's value.
func (h *ElementHandle) Fill(ctx context.Context, value string, opts *api.FillOptions) error {
	ctx, cancel := h.withDeadline(ctx)
	defer cancel()

	params := struct {
		Value string `json:"value"`
		*api.FillOptions
	}{value, opts}
	_, err := h.obj.Call(ctx, "fill", params)
	return err
}

// TextContent returns the element's text content.
func (h *ElementHandle) TextContent(ctx context.Context) (string, error) {
	ctx, cancel := h.withDeadline(ctx)
	defer cancel()

	var result struct {
		Value string `json:"value"`
	}
	if err := h.obj.CallInto(ctx, "textContent", nil, &result); err != nil {
		return "", err
	}
	return result.Value, nil
}

// Dispose releases the server-side element. Safe to call more than once.
func (h *ElementHandle) Dispose() {
	h.obj.Dispose()
}

func (h *ElementHandle) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := DefaultTimeout
	if h.frame != nil {
		if ts := h.frame.timeoutSettings(); ts != nil {
			timeout = ts.Timeout()
		}
	}
	return context.WithTimeout(ctx, timeout)
}
