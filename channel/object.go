package channel

import (
	"context"
	"encoding/json"
)

// RequestHandler serves inbound requests targeting an object (server
// role). The returned value is marshaled into the response's result.
type RequestHandler func(method string, params json.RawMessage) (any, error)

// Object is one addressable node of the remote-object tree: a client-side
// proxy or a server-side dispatcher, the shape is the same. It owns its
// children and is registered with exactly one Connection for its whole
// lifetime.
type Object struct {
	eventEmitter

	conn *Connection

	guid    string
	objType string

	// initializer is the creation-time state snapshot. It is never
	// mutated; later state changes arrive as events.
	initializer json.RawMessage

	// The fields below are guarded by conn.objectsMu.
	parent       *Object
	children     map[string]*Object
	disposed     bool
	disposeHooks []func()

	reqHandler   RequestHandler
	eventDecoder func(method string, params json.RawMessage) any

	// proxy is the typed wrapper built by the connection's object
	// factory, if any. Guarded by conn.objectsMu like the tree fields.
	proxy any
}

func newObject(conn *Connection, parent *Object, objType, guid string, initializer json.RawMessage) *Object {
	return &Object{
		conn:        conn,
		parent:      parent,
		guid:        guid,
		objType:     objType,
		initializer: initializer,
		children:    make(map[string]*Object),
	}
}

// GUID returns the object's process-unique id.
func (o *Object) GUID() string { return o.guid }

// Type returns the object's kind tag ("Page", "Frame", ...).
func (o *Object) Type() string { return o.objType }

// Connection returns the owner connection.
func (o *Object) Connection() *Connection { return o.conn }

// Initializer returns the immutable creation-time state. Callers must not
// modify the returned bytes.
func (o *Object) Initializer() json.RawMessage { return o.initializer }

// DecodeInitializer unmarshals the initializer snapshot into v.
func (o *Object) DecodeInitializer(v any) error {
	if len(o.initializer) == 0 {
		return nil
	}
	return json.Unmarshal(o.initializer, v)
}

// Proxy returns the typed wrapper the object factory built for this
// object, or nil.
func (o *Object) Proxy() any {
	o.conn.objectsMu.Lock()
	defer o.conn.objectsMu.Unlock()
	return o.proxy
}

// Parent returns the owning object, or nil for roots.
func (o *Object) Parent() *Object {
	o.conn.objectsMu.Lock()
	defer o.conn.objectsMu.Unlock()
	return o.parent
}

// Children returns a snapshot of the objects this one currently owns.
func (o *Object) Children() []*Object {
	o.conn.objectsMu.Lock()
	defer o.conn.objectsMu.Unlock()
	children := make([]*Object, 0, len(o.children))
	for _, c := range o.children {
		children = append(children, c)
	}
	return children
}

// IsDisposed reports whether the object has been removed from the
// registry.
func (o *Object) IsDisposed() bool {
	o.conn.objectsMu.Lock()
	defer o.conn.objectsMu.Unlock()
	return o.disposed
}

// OnDispose registers a hook run once when the object is disposed, so
// owning features can release local resources tied to the remote object.
// Registering on an already disposed object runs the hook immediately.
func (o *Object) OnDispose(fn func()) {
	o.conn.objectsMu.Lock()
	if o.disposed {
		o.conn.objectsMu.Unlock()
		fn()
		return
	}
	o.disposeHooks = append(o.disposeHooks, fn)
	o.conn.objectsMu.Unlock()
}

// Dispose removes the object and all of its descendants from the registry
// and notifies the peer. Disposing twice is a no-op.
func (o *Object) Dispose() {
	o.conn.disposeObject(o, true)
}

// SetRequestHandler installs the server-role handler for inbound requests
// targeting this object.
func (o *Object) SetRequestHandler(h RequestHandler) {
	o.conn.objectsMu.Lock()
	o.reqHandler = h
	o.conn.objectsMu.Unlock()
}

func (o *Object) requestHandler() RequestHandler {
	o.conn.objectsMu.Lock()
	defer o.conn.objectsMu.Unlock()
	return o.reqHandler
}

// Call performs a request/response round trip targeting this object. It
// is the generic entry point of the call surface; typed wrappers add
// method names and parameter shapes on top of it.
//
// The call site is captured before the round trip begins, a start/finish
// marker is logged, and a failure comes back as a *CallError that prefixes
// the operation name and splices the local call-site trace onto the remote
// one.
func (o *Object) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var (
		op       = o.objType + "." + method
		site     = callSiteMarker(op)
		category = o.objType + ":" + method
		logger   = o.conn.logger
	)
	logger.Debugf(category, "guid:%s started", o.guid)
	result, err := o.conn.Call(ctx, o.guid, method, params)
	if err != nil {
		logger.Debugf(category, "guid:%s failed: %v", o.guid, err)
		return nil, newCallError(op, site, err)
	}
	logger.Debugf(category, "guid:%s succeeded", o.guid)
	return result, nil
}

// CallInto performs Call and unmarshals the result into v (ignored when v
// is nil or the result is empty).
func (o *Object) CallInto(ctx context.Context, method string, params, v any) error {
	result, err := o.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if v == nil || len(result) == 0 {
		return nil
	}
	return json.Unmarshal(result, v)
}

// EmitToPeer pushes a fire-and-forget event targeting this object's id on
// the other side.
func (o *Object) EmitToPeer(method string, params any) error {
	return o.conn.sendEvent(o.guid, method, params)
}

// EmitLocal delivers a locally synthesized event to this object's
// listeners. It never touches the network.
func (o *Object) EmitLocal(event string, data any) {
	o.emit(event, data)
}

// OnInternal registers a framework listener; internal listeners run before
// application listeners registered with On or Once.
func (o *Object) OnInternal(event string, fn EventHandler) (off func()) {
	return o.onInternal(event, fn)
}

// SetEventDecoder installs a translator applied to inbound wire events
// before listeners run. It lets a typed proxy hand its listeners decoded
// values (a *Page instead of raw params, say). Returning nil keeps the
// raw params.
func (o *Object) SetEventDecoder(fn func(method string, params json.RawMessage) any) {
	o.conn.objectsMu.Lock()
	o.eventDecoder = fn
	o.conn.objectsMu.Unlock()
}

// handleEvent delivers an inbound wire event to local listeners, internal
// registry first.
func (o *Object) handleEvent(method string, params json.RawMessage) {
	o.conn.objectsMu.Lock()
	decode := o.eventDecoder
	o.conn.objectsMu.Unlock()

	data := any(params)
	if decode != nil {
		if decoded := decode(method, params); decoded != nil {
			data = decoded
		}
	}
	o.emit(method, data)
}
