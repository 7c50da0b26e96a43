package common

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// Ensure Frame implements the api.Frame interface.
var _ api.Frame = &Frame{}

// Frame is the proxy of one frame in a page's frame tree. The main frame
// is announced before its page; child frames are announced as children of
// the page once it exists.
type Frame struct {
	obj    *channel.Object
	logger *log.Logger

	mu          sync.RWMutex
	page        *Page
	name        string
	url         string
	parentFrame *Frame
	childFrames map[string]*Frame
}

type frameInitializer struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	ParentFrame *guidRef `json:"parentFrame,omitempty"`
}

// NewFrame builds the proxy for a "Frame" object.
func NewFrame(obj *channel.Object, logger *log.Logger) (*Frame, error) {
	var init frameInitializer
	if err := obj.DecodeInitializer(&init); err != nil {
		return nil, fmt.Errorf("decoding frame initializer: %w", err)
	}

	f := &Frame{
		obj:         obj,
		logger:      logger,
		name:        init.Name,
		url:         init.URL,
		childFrames: make(map[string]*Frame),
	}

	if init.ParentFrame != nil {
		proxy, err := proxyByGUID(obj.Connection(), init.ParentFrame.GUID)
		if err != nil {
			return nil, fmt.Errorf("resolving parent of frame %q: %w", obj.GUID(), err)
		}
		parent, ok := proxy.(*Frame)
		if !ok {
			return nil, fmt.Errorf("parent of frame %q is not a frame", obj.GUID())
		}
		f.parentFrame = parent
		parent.addChild(f)
		f.setPage(parent.Page())
		obj.OnDispose(func() {
			parent.removeChild(obj.GUID())
		})
	}

	// Keep the local snapshot of url/name in step with navigations. The
	// initializer itself stays untouched.
	obj.OnInternal(EventFrameNavigated, func(ev channel.Event) {
		params, ok := ev.Data.(json.RawMessage)
		if !ok {
			return
		}
		var nav struct {
			URL  string `json:"url"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(params, &nav); err != nil {
			f.logger.Errorf("Frame:navigated", "malformed navigation event: %v", err)
			return
		}
		f.mu.Lock()
		f.url = nav.URL
		f.name = nav.Name
		f.mu.Unlock()
	})

	return f, nil
}

// Page returns the page this frame belongs to.
func (f *Frame) Page() *Page {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.page
}

func (f *Frame) setPage(p *Page) {
	f.mu.Lock()
	f.page = p
	f.mu.Unlock()
}

// Name returns the frame's name attribute as of the last navigation.
func (f *Frame) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// URL returns the frame's URL as of the last navigation.
func (f *Frame) URL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.url
}

// ParentFrame returns the owning frame, or nil for a main frame.
func (f *Frame) ParentFrame() api.Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.parentFrame == nil {
		return nil
	}
	return f.parentFrame
}

// ChildFrames returns the frames currently nested in this one.
func (f *Frame) ChildFrames() []api.Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	frames := make([]api.Frame, 0, len(f.childFrames))
	for _, child := range f.childFrames {
		frames = append(frames, child)
	}
	return frames
}

type gotoParams struct {
	URL string `json:"url"`
	api.GotoOptions
}

// Goto navigates the frame and waits for the configured lifecycle moment.
func (f *Frame) Goto(ctx context.Context, url string, opts *api.GotoOptions) (api.Response, error) {
	ctx, cancel := f.withNavigationDeadline(ctx, opts)
	defer cancel()

	params := gotoParams{URL: url}
	if opts != nil {
		params.GotoOptions = *opts
	}
	var result struct {
		Response api.Response `json:"response"`
	}
	if err := f.obj.CallInto(ctx, "goto", params, &result); err != nil {
		return api.Response{}, err
	}
	return result.Response, nil
}

type selectorParams struct {
	Selector string `json:"selector"`
}

// Click clicks the first element matching selector.
func (f *Frame) Click(ctx context.Context, selector string, opts *api.ClickOptions) error {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	params := struct {
		selectorParams
		*api.ClickOptions
	}{selectorParams{selector}, opts}
	_, err := f.obj.Call(ctx, "click", params)
	return err
}

// Fill sets the value of the first element matching selector.
func (f *Frame) Fill(ctx context.Context, selector, value string, opts *api.FillOptions) error {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	params := struct {
		Selector string `json:"selector"`
		Value    string `json:"value"`
		*api.FillOptions
	}{selector, value, opts}
	_, err := f.obj.Call(ctx, "fill", params)
	return err
}

// Title returns the document title.
func (f *Frame) Title(ctx context.Context) (string, error) {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	var result struct {
		Value string `json:"value"`
	}
	if err := f.obj.CallInto(ctx, "title", nil, &result); err != nil {
		return "", err
	}
	return result.Value, nil
}

// Content returns the frame's full HTML.
func (f *Frame) Content(ctx context.Context) (string, error) {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	var result struct {
		Value string `json:"value"`
	}
	if err := f.obj.CallInto(ctx, "content", nil, &result); err != nil {
		return "", err
	}
	return result.Value, nil
}

// Evaluate ships expression and arg to the server for evaluation in the
// frame and returns the JSON-decoded result. The expression is opaque data
// to this side.
func (f *Frame) Evaluate(ctx context.Context, expression string, arg any) (any, error) {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	params := struct {
		Expression string `json:"expression"`
		Arg        any    `json:"arg,omitempty"`
	}{expression, arg}
	var result struct {
		Value any `json:"value"`
	}
	if err := f.obj.CallInto(ctx, "evaluate", params, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// Query returns a handle to the first element matching selector, or nil
// when nothing matches.
func (f *Frame) Query(ctx context.Context, selector string) (api.ElementHandle, error) {
	ctx, cancel := f.withDeadline(ctx)
	defer cancel()

	var result struct {
		Element *guidRef `json:"element"`
	}
	if err := f.obj.CallInto(ctx, "query", selectorParams{selector}, &result); err != nil {
		return nil, err
	}
	if result.Element == nil {
		return nil, nil
	}
	proxy, err := proxyByGUID(f.obj.Connection(), result.Element.GUID)
	if err != nil {
		return nil, fmt.Errorf("resolving element handle: %w", err)
	}
	handle, ok := proxy.(*ElementHandle)
	if !ok {
		return nil, fmt.Errorf("object %q is not an element handle", result.Element.GUID)
	}
	return handle, nil
}

func (f *Frame) addChild(child *Frame) {
	f.mu.Lock()
	f.childFrames[child.obj.GUID()] = child
	f.mu.Unlock()
}

func (f *Frame) removeChild(guid string) {
	f.mu.Lock()
	delete(f.childFrames, guid)
	f.mu.Unlock()
}

func (f *Frame) timeoutSettings() *TimeoutSettings {
	if p := f.Page(); p != nil {
		return p.timeoutSettings
	}
	return nil
}

func (f *Frame) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := DefaultTimeout
	if ts := f.timeoutSettings(); ts != nil {
		timeout = ts.Timeout()
	}
	return context.WithTimeout(ctx, timeout)
}

func (f *Frame) withNavigationDeadline(ctx context.Context, opts *api.GotoOptions) (context.Context, context.CancelFunc) {
	timeout := DefaultTimeout
	if ts := f.timeoutSettings(); ts != nil {
		timeout = ts.NavigationTimeout()
	}
	if opts != nil && opts.Timeout.Valid {
		timeout = time.Duration(opts.Timeout.Int64) * time.Millisecond
	}
	return context.WithTimeout(ctx, timeout)
}
