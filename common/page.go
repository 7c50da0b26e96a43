package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// Ensure Page implements the api.Page interface.
var _ api.Page = &Page{}

// Page is the proxy of a single tab. Navigation and DOM actions delegate
// to the main frame, as in the frame tree the page only aggregates.
type Page struct {
	obj    *channel.Object
	logger *log.Logger

	browserContext  *BrowserContext
	mainFrame       *Frame
	keyboard        *Keyboard
	timeoutSettings *TimeoutSettings

	closedMu sync.RWMutex
	closed   bool
}

type pageInitializer struct {
	MainFrame    guidRef `json:"mainFrame"`
	ViewportSize struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewportSize"`
}

// NewPage builds the proxy for a "Page" object. The server creates the
// main frame before the page and references it in the page initializer.
func NewPage(obj *channel.Object, logger *log.Logger) (*Page, error) {
	parent := obj.Parent()
	if parent == nil {
		return nil, fmt.Errorf("page %q has no parent", obj.GUID())
	}
	bc, ok := parent.Proxy().(*BrowserContext)
	if !ok {
		return nil, fmt.Errorf("parent of page %q is not a browser context", obj.GUID())
	}

	var init pageInitializer
	if err := obj.DecodeInitializer(&init); err != nil {
		return nil, fmt.Errorf("decoding page initializer: %w", err)
	}
	frameProxy, err := proxyByGUID(obj.Connection(), init.MainFrame.GUID)
	if err != nil {
		return nil, fmt.Errorf("resolving main frame of page %q: %w", obj.GUID(), err)
	}
	mainFrame, ok := frameProxy.(*Frame)
	if !ok {
		return nil, fmt.Errorf("main frame of page %q is not a frame", obj.GUID())
	}

	p := &Page{
		obj:             obj,
		logger:          logger,
		browserContext:  bc,
		mainFrame:       mainFrame,
		timeoutSettings: NewTimeoutSettings(bc.timeoutSettings),
	}
	p.keyboard = NewKeyboard(obj, logger)
	mainFrame.setPage(p)

	bc.addPage(p)
	obj.OnDispose(func() {
		bc.removePage(obj.GUID())
	})
	obj.OnInternal(EventPageClose, func(channel.Event) {
		p.closedMu.Lock()
		p.closed = true
		p.closedMu.Unlock()
	})

	return p, nil
}

// MainFrame returns the page's top frame.
func (p *Page) MainFrame() api.Frame { return p.mainFrame }

// Keyboard returns the page's keyboard device.
func (p *Page) Keyboard() api.Keyboard { return p.keyboard }

// URL returns the main frame's current URL.
func (p *Page) URL() string { return p.mainFrame.URL() }

// IsClosed reports whether the page has been closed.
func (p *Page) IsClosed() bool {
	p.closedMu.RLock()
	defer p.closedMu.RUnlock()
	return p.closed || p.obj.IsDisposed()
}

// Goto navigates the main frame.
func (p *Page) Goto(ctx context.Context, url string, opts *api.GotoOptions) (api.Response, error) {
	return p.mainFrame.Goto(ctx, url, opts)
}

// Reload reloads the current document.
func (p *Page) Reload(ctx context.Context, opts *api.GotoOptions) (api.Response, error) {
	ctx, cancel := p.withNavigationDeadline(ctx, opts)
	defer cancel()

	var result struct {
		Response api.Response `json:"response"`
	}
	if err := p.obj.CallInto(ctx, "reload", opts, &result); err != nil {
		return api.Response{}, err
	}
	return result.Response, nil
}

// Click clicks the first element matching selector in the main frame.
func (p *Page) Click(ctx context.Context, selector string, opts *api.ClickOptions) error {
	return p.mainFrame.Click(ctx, selector, opts)
}

// Fill fills the first element matching selector in the main frame.
func (p *Page) Fill(ctx context.Context, selector, value string, opts *api.FillOptions) error {
	return p.mainFrame.Fill(ctx, selector, value, opts)
}

// Title returns the document title of the main frame.
func (p *Page) Title(ctx context.Context) (string, error) {
	return p.mainFrame.Title(ctx)
}

// Content returns the full HTML of the main frame.
func (p *Page) Content(ctx context.Context) (string, error) {
	return p.mainFrame.Content(ctx)
}

// Query returns a handle to the first element matching selector in the
// main frame, or nil when nothing matches.
func (p *Page) Query(ctx context.Context, selector string) (api.ElementHandle, error) {
	return p.mainFrame.Query(ctx, selector)
}

// Screenshot captures the page into a server-side artifact.
func (p *Page) Screenshot(ctx context.Context, opts *api.ScreenshotOptions) (api.Artifact, error) {
	ctx, cancel := p.withDeadline(ctx)
	defer cancel()

	var result struct {
		Artifact guidRef `json:"artifact"`
	}
	if err := p.obj.CallInto(ctx, "screenshot", opts, &result); err != nil {
		return nil, err
	}
	proxy, err := proxyByGUID(p.obj.Connection(), result.Artifact.GUID)
	if err != nil {
		return nil, fmt.Errorf("resolving screenshot artifact: %w", err)
	}
	artifact, ok := proxy.(*Artifact)
	if !ok {
		return nil, fmt.Errorf("object %q is not an artifact", result.Artifact.GUID)
	}
	return artifact, nil
}

// Close closes the page on the server, which answers by disposing it and
// its frames.
func (p *Page) Close(ctx context.Context) error {
	_, err := p.obj.Call(ctx, "close", nil)
	return err
}

// On registers an application listener ("close", "crash", "console").
func (p *Page) On(event string, fn func(data any)) (off func()) {
	return p.obj.On(event, func(ev channel.Event) { fn(ev.Data) })
}

func (p *Page) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeoutSettings.Timeout())
}

func (p *Page) withNavigationDeadline(ctx context.Context, opts *api.GotoOptions) (context.Context, context.CancelFunc) {
	timeout := p.timeoutSettings.NavigationTimeout()
	if opts != nil && opts.Timeout.Valid {
		timeout = time.Duration(opts.Timeout.Int64) * time.Millisecond
	}
	return context.WithTimeout(ctx, timeout)
}
