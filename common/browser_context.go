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

// Ensure BrowserContext implements the api.BrowserContext interface.
var _ api.BrowserContext = &BrowserContext{}

// BrowserContext is the proxy of an isolated browsing session. Pages and
// their frames live underneath it in the object tree, so closing a context
// cascades through everything it owns.
type BrowserContext struct {
	obj    *channel.Object
	logger *log.Logger

	browser         *Browser
	timeoutSettings *TimeoutSettings

	pagesMu sync.RWMutex
	pages   map[string]*Page
}

// NewBrowserContext builds the proxy for a "BrowserContext" object. The
// server creates contexts underneath the browser root, so the parent proxy
// is always the Browser.
func NewBrowserContext(obj *channel.Object, logger *log.Logger) (*BrowserContext, error) {
	parent := obj.Parent()
	if parent == nil {
		return nil, fmt.Errorf("browser context %q has no parent", obj.GUID())
	}
	browser, ok := parent.Proxy().(*Browser)
	if !ok {
		return nil, fmt.Errorf("parent of browser context %q is not a browser", obj.GUID())
	}

	bc := &BrowserContext{
		obj:             obj,
		logger:          logger,
		browser:         browser,
		timeoutSettings: NewTimeoutSettings(nil),
		pages:           make(map[string]*Page),
	}
	browser.addContext(bc)
	obj.OnDispose(func() {
		browser.removeContext(obj.GUID())
	})

	obj.OnInternal(EventContextClose, func(channel.Event) {
		bc.logger.Debugf("BrowserContext:close", "guid:%s closed by server", obj.GUID())
	})

	// The server announces server-initiated pages (popups, targets opened
	// by a page itself) with a page event referencing the new object, so
	// listeners get the typed proxy instead of raw params.
	obj.SetEventDecoder(bc.decodeEvent)

	return bc, nil
}

func (bc *BrowserContext) decodeEvent(method string, params json.RawMessage) any {
	if method != EventContextPage {
		return nil
	}
	var p struct {
		Page guidRef `json:"page"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		bc.logger.Errorf("BrowserContext:page", "malformed page event: %v", err)
		return nil
	}
	proxy, err := proxyByGUID(bc.obj.Connection(), p.Page.GUID)
	if err != nil {
		bc.logger.Errorf("BrowserContext:page", "resolving page: %v", err)
		return nil
	}
	return proxy
}

// Browser returns the owning browser.
func (bc *BrowserContext) Browser() api.Browser { return bc.browser }

// NewPage opens a new page in this context.
func (bc *BrowserContext) NewPage(ctx context.Context) (api.Page, error) {
	var result struct {
		Page guidRef `json:"page"`
	}
	if err := bc.obj.CallInto(ctx, "newPage", nil, &result); err != nil {
		return nil, err
	}
	proxy, err := proxyByGUID(bc.obj.Connection(), result.Page.GUID)
	if err != nil {
		return nil, fmt.Errorf("resolving new page: %w", err)
	}
	page, ok := proxy.(*Page)
	if !ok {
		return nil, fmt.Errorf("object %q is not a page", result.Page.GUID)
	}
	return page, nil
}

// Pages returns the currently open pages of this context.
func (bc *BrowserContext) Pages() []api.Page {
	bc.pagesMu.RLock()
	defer bc.pagesMu.RUnlock()
	pages := make([]api.Page, 0, len(bc.pages))
	for _, p := range bc.pages {
		pages = append(pages, p)
	}
	return pages
}

// Close closes the context and every page in it.
func (bc *BrowserContext) Close(ctx context.Context) error {
	_, err := bc.obj.Call(ctx, "close", nil)
	return err
}

// SetDefaultTimeout changes the default deadline of all operations in this
// context. Local-only; nothing crosses the wire.
func (bc *BrowserContext) SetDefaultTimeout(timeout time.Duration) {
	bc.timeoutSettings.SetDefaultTimeout(timeout)
}

// SetDefaultNavigationTimeout changes the default navigation deadline.
func (bc *BrowserContext) SetDefaultNavigationTimeout(timeout time.Duration) {
	bc.timeoutSettings.SetDefaultNavigationTimeout(timeout)
}

// On registers an application listener ("page", "close").
func (bc *BrowserContext) On(event string, fn func(data any)) (off func()) {
	return bc.obj.On(event, func(ev channel.Event) { fn(ev.Data) })
}

func (bc *BrowserContext) addPage(p *Page) {
	bc.pagesMu.Lock()
	bc.pages[p.obj.GUID()] = p
	bc.pagesMu.Unlock()
}

func (bc *BrowserContext) removePage(guid string) {
	bc.pagesMu.Lock()
	delete(bc.pages, guid)
	bc.pagesMu.Unlock()
}
