package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// Ensure Browser implements the api.Browser interface.
var _ api.Browser = &Browser{}

// Browser is the driver-side proxy of the browser server's root object.
type Browser struct {
	obj    *channel.Object
	logger *log.Logger

	name    string
	version string

	contextsMu sync.RWMutex
	contexts   map[string]*BrowserContext

	connectedMu sync.RWMutex
	connected   bool
}

type browserInitializer struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewBrowser builds the proxy for a "Browser" object announced by the
// server.
func NewBrowser(obj *channel.Object, logger *log.Logger) (*Browser, error) {
	var init browserInitializer
	if err := obj.DecodeInitializer(&init); err != nil {
		return nil, fmt.Errorf("decoding browser initializer: %w", err)
	}
	b := &Browser{
		obj:       obj,
		logger:    logger,
		name:      init.Name,
		version:   init.Version,
		contexts:  make(map[string]*BrowserContext),
		connected: true,
	}
	obj.OnDispose(func() {
		b.connectedMu.Lock()
		b.connected = false
		b.connectedMu.Unlock()
		b.emit(EventBrowserDisconnected, nil)
	})
	return b, nil
}

// Name returns the engine name reported in the initializer.
func (b *Browser) Name() string { return b.name }

// Version returns the engine version reported in the initializer.
func (b *Browser) Version() string { return b.version }

// IsConnected reports whether the connection to the server is alive.
func (b *Browser) IsConnected() bool {
	b.connectedMu.RLock()
	defer b.connectedMu.RUnlock()
	return b.connected && !b.obj.IsDisposed()
}

// NewContext asks the server for a new isolated browsing context.
func (b *Browser) NewContext(ctx context.Context, opts *api.BrowserContextOptions) (api.BrowserContext, error) {
	var result struct {
		Context guidRef `json:"context"`
	}
	if err := b.obj.CallInto(ctx, "newContext", opts, &result); err != nil {
		return nil, err
	}
	proxy, err := proxyByGUID(b.obj.Connection(), result.Context.GUID)
	if err != nil {
		return nil, fmt.Errorf("resolving new context: %w", err)
	}
	bc, ok := proxy.(*BrowserContext)
	if !ok {
		return nil, fmt.Errorf("object %q is not a browser context", result.Context.GUID)
	}
	return bc, nil
}

// Contexts returns the currently open contexts.
func (b *Browser) Contexts() []api.BrowserContext {
	b.contextsMu.RLock()
	defer b.contextsMu.RUnlock()
	contexts := make([]api.BrowserContext, 0, len(b.contexts))
	for _, bc := range b.contexts {
		contexts = append(contexts, bc)
	}
	return contexts
}

// Close shuts the remote browser down. The server answers by disposing
// the whole object tree.
func (b *Browser) Close(ctx context.Context) error {
	_, err := b.obj.Call(ctx, "close", nil)
	return err
}

// On registers an application listener ("disconnected").
func (b *Browser) On(event string, fn func(data any)) (off func()) {
	return b.obj.On(event, func(ev channel.Event) { fn(ev.Data) })
}

func (b *Browser) emit(event string, data any) {
	b.obj.EmitLocal(event, data)
}

func (b *Browser) addContext(bc *BrowserContext) {
	b.contextsMu.Lock()
	b.contexts[bc.obj.GUID()] = bc
	b.contextsMu.Unlock()
}

func (b *Browser) removeContext(guid string) {
	b.contextsMu.Lock()
	delete(b.contexts, guid)
	b.contextsMu.Unlock()
}
