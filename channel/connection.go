package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mailru/easyjson"
	"github.com/oklog/ulid/v2"

	"github.com/understudy-dev/understudy/log"
)

// maxPendingCalls bounds the pending-call table. A peer that stops
// answering would otherwise grow it without limit on a long-lived
// connection.
const maxPendingCalls = 4096

// ObjectFactory builds the typed wrapper for an object announced by the
// peer. Returning (nil, nil) leaves the object as a plain channel object,
// which keeps unknown types routable.
type ObjectFactory func(obj *Object) (any, error)

// Connection routes envelopes between the local object tree and its single
// Transport: it owns the id→object registry and the pending-call table,
// and processes every inbound message on the transport's one delivery
// goroutine, in arrival order.
type Connection struct {
	logger    *log.Logger
	transport Transport
	factory   ObjectFactory

	lastID int64 // atomic; call ids are monotonic and never reused

	callsMu sync.Mutex
	calls   map[int64]*Call

	objectsMu sync.Mutex
	objects   map[string]*Object
	waiters   []*objectWaiter

	closed atomic.Bool
	done   chan struct{}
}

type objectWaiter struct {
	objType string
	ch      chan *Object
}

// Call is the future of one outstanding request.
type Call struct {
	id     int64
	method string

	done   chan struct{}
	once   sync.Once
	result json.RawMessage
	err    error
}

// Done is closed when the call completes.
func (c *Call) Done() <-chan struct{} { return c.done }

// Result blocks until the call completes and returns its outcome.
func (c *Call) Result() (json.RawMessage, error) {
	<-c.done
	return c.result, c.err
}

func (c *Call) settle(result json.RawMessage, err error) {
	c.once.Do(func() {
		c.result = result
		c.err = err
		close(c.done)
	})
}

// NewConnection binds a connection to its transport and starts inbound
// delivery. The factory may be nil (server role, or tests working with
// plain objects).
func NewConnection(logger *log.Logger, transport Transport, factory ObjectFactory) *Connection {
	c := &Connection{
		logger:    logger,
		transport: transport,
		factory:   factory,
		calls:     make(map[int64]*Call),
		objects:   make(map[string]*Object),
		done:      make(chan struct{}),
	}
	transport.SetOnMessage(c.dispatch)
	transport.SetOnClose(func() { c.teardown() })
	transport.Start()
	return c
}

// Close tears the connection down: every pending call is rejected with
// ErrConnectionClosed, every remaining object is disposed and the
// transport is closed. Close is idempotent.
func (c *Connection) Close() error {
	c.teardown()
	return nil
}

// Done is closed when the connection is torn down.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// StartCall issues a request targeting guid and returns its future
// immediately. It never blocks on the peer; the future settles when the
// matching response arrives or the connection goes away.
func (c *Connection) StartCall(guid, method string, params any) (*Call, error) {
	raw, err := marshalValue(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling params of %q: %w", method, err)
	}

	call := &Call{
		id:     atomic.AddInt64(&c.lastID, 1),
		method: method,
		done:   make(chan struct{}),
	}

	c.callsMu.Lock()
	if c.isClosed() {
		c.callsMu.Unlock()
		return nil, ErrConnectionClosed
	}
	if len(c.calls) >= maxPendingCalls {
		c.callsMu.Unlock()
		return nil, ErrTooManyCalls
	}
	c.calls[call.id] = call
	c.callsMu.Unlock()

	msg := &Message{ID: call.id, GUID: guid, Method: method, Params: raw}
	if err := c.transport.Send(msg); err != nil {
		c.forgetCall(call.id)
		if c.isClosed() {
			return nil, ErrConnectionClosed
		}
		return nil, err
	}
	return call, nil
}

// Call issues a request and waits for its response, racing ctx. On ctx
// expiry the pending record is removed first, so a response arriving later
// is dropped silently; the remote execution itself is not retracted.
func (c *Connection) Call(ctx context.Context, guid, method string, params any) (json.RawMessage, error) {
	call, err := c.StartCall(guid, method, params)
	if err != nil {
		return nil, err
	}
	select {
	case <-call.done:
		return call.result, call.err
	case <-ctx.Done():
		c.forgetCall(call.id)
		return nil, ctx.Err()
	}
}

func (c *Connection) forgetCall(id int64) {
	c.callsMu.Lock()
	delete(c.calls, id)
	c.callsMu.Unlock()
}

func (c *Connection) takeCall(id int64) *Call {
	c.callsMu.Lock()
	defer c.callsMu.Unlock()
	call := c.calls[id]
	delete(c.calls, id)
	return call
}

// LookupObject returns the registered object with the given id, or nil.
func (c *Connection) LookupObject(guid string) *Object {
	c.objectsMu.Lock()
	defer c.objectsMu.Unlock()
	return c.objects[guid]
}

// WaitForObject blocks until the peer announces an object of the given
// type (or one is already registered).
func (c *Connection) WaitForObject(ctx context.Context, objType string) (*Object, error) {
	c.objectsMu.Lock()
	for _, obj := range c.objects {
		if obj.objType == objType {
			c.objectsMu.Unlock()
			return obj, nil
		}
	}
	w := &objectWaiter{objType: objType, ch: make(chan *Object, 1)}
	c.waiters = append(c.waiters, w)
	c.objectsMu.Unlock()

	select {
	case obj := <-w.ch:
		return obj, nil
	case <-ctx.Done():
		c.removeWaiter(w)
		return nil, ctx.Err()
	case <-c.done:
		c.removeWaiter(w)
		return nil, ErrConnectionClosed
	}
}

// removeWaiter drops an abandoned waiter so it does not pile up (or soak
// up a future announcement) after its caller has gone away.
func (c *Connection) removeWaiter(w *objectWaiter) {
	c.objectsMu.Lock()
	kept := c.waiters[:0]
	for _, o := range c.waiters {
		if o != w {
			kept = append(kept, o)
		}
	}
	c.waiters = kept
	c.objectsMu.Unlock()
}

// CreateObject registers a locally owned object (server role) and
// announces it to the peer with a __create__ event. A nil parent creates a
// root. The initializer snapshot is captured once, here.
func (c *Connection) CreateObject(parent *Object, objType string, initializer any) (*Object, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	raw, err := marshalValue(initializer)
	if err != nil {
		return nil, fmt.Errorf("marshaling initializer of %q: %w", objType, err)
	}

	guid := newGUID(objType)
	obj, err := c.addObject(parent, objType, guid, raw)
	if err != nil {
		return nil, err
	}

	parentGUID := ""
	if parent != nil {
		parentGUID = parent.guid
	}
	params, err := json.Marshal(createParams{Type: objType, GUID: guid, Initializer: raw})
	if err != nil {
		return nil, fmt.Errorf("marshaling __create__ of %q: %w", objType, err)
	}
	msg := &Message{GUID: parentGUID, Method: methodCreate, Params: params}
	if err := c.transport.Send(msg); err != nil {
		c.disposeObject(obj, false)
		return nil, err
	}
	return obj, nil
}

// sendEvent pushes a fire-and-forget event envelope to the peer.
func (c *Connection) sendEvent(guid, method string, params any) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	raw, err := marshalValue(params)
	if err != nil {
		return fmt.Errorf("marshaling params of event %q: %w", method, err)
	}
	return c.transport.Send(&Message{GUID: guid, Method: method, Params: raw})
}

// dispatch handles one inbound envelope. The transport invokes it from a
// single goroutine, so messages are processed strictly in delivery order.
func (c *Connection) dispatch(msg *Message) {
	switch {
	case msg.ID != 0 && msg.Method == "":
		c.dispatchResponse(msg)
	case msg.ID != 0:
		c.dispatchRequest(msg)
	case msg.Method == methodCreate:
		c.onRemoteCreate(msg)
	case msg.Method == methodDispose:
		c.onRemoteDispose(msg)
	case msg.Method != "":
		c.dispatchEvent(msg)
	default:
		c.logger.Debugf("Connection:dispatch", "ignoring malformed message (no id, no method)")
	}
}

func (c *Connection) dispatchResponse(msg *Message) {
	call := c.takeCall(msg.ID)
	if call == nil {
		// Stale or duplicate response; the caller timed out or the
		// object tree was torn down while it was in flight.
		c.logger.Debugf("Connection:dispatch", "dropping response for unknown call id %d", msg.ID)
		return
	}
	if msg.Error != nil {
		call.settle(nil, msg.Error.toError())
		return
	}
	call.settle(msg.Result, nil)
}

func (c *Connection) dispatchRequest(msg *Message) {
	result, err := c.serveRequest(msg)
	resp := &Message{ID: msg.ID}
	if err != nil {
		resp.Error = errorPayloadFrom(err)
	} else {
		resp.Result = result
	}
	if err := c.transport.Send(resp); err != nil {
		c.logger.Debugf("Connection:dispatch", "sending response for call id %d: %v", msg.ID, err)
	}
}

func (c *Connection) serveRequest(msg *Message) (_ json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic serving %q: %v", msg.Method, r)
		}
	}()

	obj := c.LookupObject(msg.GUID)
	if obj == nil {
		return nil, fmt.Errorf("no object with guid %q", msg.GUID)
	}
	handler := obj.requestHandler()
	if handler == nil {
		return nil, fmt.Errorf("object %q does not handle requests", msg.GUID)
	}
	result, err := handler(msg.Method, msg.Params)
	if err != nil {
		return nil, err
	}
	raw, err := marshalValue(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling result of %q: %w", msg.Method, err)
	}
	return raw, nil
}

func (c *Connection) dispatchEvent(msg *Message) {
	obj := c.LookupObject(msg.GUID)
	if obj == nil {
		// The object may have been disposed between the peer's send and
		// our receipt.
		c.logger.Debugf("Connection:dispatch", "dropping event %q for unknown guid %q", msg.Method, msg.GUID)
		return
	}
	obj.handleEvent(msg.Method, msg.Params)
}

func (c *Connection) onRemoteCreate(msg *Message) {
	var p createParams
	if err := json.Unmarshal(msg.Params, &p); err != nil {
		c.logger.Errorf("Connection:dispatch", "malformed __create__ params: %v", err)
		return
	}
	var parent *Object
	if msg.GUID != "" {
		if parent = c.LookupObject(msg.GUID); parent == nil {
			c.logger.Debugf("Connection:dispatch",
				"dropping __create__ of %q under unknown parent %q", p.GUID, msg.GUID)
			return
		}
	}
	obj, err := c.addObject(parent, p.Type, p.GUID, p.Initializer)
	if err != nil {
		c.logger.Errorf("Connection:dispatch", "registering %q: %v", p.GUID, err)
		return
	}
	if c.factory != nil {
		proxy, err := c.factory(obj)
		if err != nil {
			c.logger.Errorf("Connection:dispatch", "building proxy for %q (%s): %v", p.GUID, p.Type, err)
		}
		c.objectsMu.Lock()
		obj.proxy = proxy
		c.objectsMu.Unlock()
	}
	c.notifyWaiters(obj)
}

func (c *Connection) onRemoteDispose(msg *Message) {
	obj := c.LookupObject(msg.GUID)
	if obj == nil {
		c.logger.Debugf("Connection:dispatch", "dropping __dispose__ for unknown guid %q", msg.GUID)
		return
	}
	c.disposeObject(obj, false)
}

// addObject registers a node, linking it to its parent. Ids are unique for
// the connection's lifetime; a duplicate is a protocol violation.
func (c *Connection) addObject(parent *Object, objType, guid string, initializer json.RawMessage) (*Object, error) {
	c.objectsMu.Lock()
	defer c.objectsMu.Unlock()
	if _, ok := c.objects[guid]; ok {
		return nil, fmt.Errorf("object guid %q already registered", guid)
	}
	obj := newObject(c, parent, objType, guid, initializer)
	c.objects[guid] = obj
	if parent != nil {
		parent.children[guid] = obj
	}
	return obj, nil
}

func (c *Connection) notifyWaiters(obj *Object) {
	c.objectsMu.Lock()
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if w.objType == obj.objType {
			w.ch <- obj
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
	c.objectsMu.Unlock()
}

// disposeObject removes obj and every descendant from the registry,
// detaches obj from its parent, runs dispose hooks, and optionally tells
// the peer. Idempotent.
func (c *Connection) disposeObject(obj *Object, notifyPeer bool) {
	c.objectsMu.Lock()
	if obj.disposed {
		c.objectsMu.Unlock()
		return
	}
	var hooks []func()
	var mark func(o *Object)
	mark = func(o *Object) {
		o.disposed = true
		delete(c.objects, o.guid)
		hooks = append(hooks, o.disposeHooks...)
		o.disposeHooks = nil
		for _, child := range o.children {
			mark(child)
		}
		o.children = nil
	}
	mark(obj)
	if obj.parent != nil {
		delete(obj.parent.children, obj.guid)
	}
	c.objectsMu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	if notifyPeer && !c.isClosed() {
		msg := &Message{GUID: obj.guid, Method: methodDispose}
		if err := c.transport.Send(msg); err != nil {
			c.logger.Debugf("Connection:dispose", "notifying peer about %q: %v", obj.guid, err)
		}
	}
}

// teardown moves the connection to closed exactly once: pending calls are
// rejected with the uniform disconnection error and the whole object tree
// is disposed. The guard is a CAS, not a sync.Once: closing the transport
// fires its close callback, which re-enters teardown on the same
// goroutine, and the re-entry must be a no-op rather than a deadlock.
func (c *Connection) teardown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.logger.Debugf("Connection:teardown", "closing connection")

	c.callsMu.Lock()
	close(c.done)
	pending := make([]*Call, 0, len(c.calls))
	for _, call := range c.calls {
		pending = append(pending, call)
	}
	c.calls = make(map[int64]*Call)
	c.callsMu.Unlock()

	for _, call := range pending {
		call.settle(nil, ErrConnectionClosed)
	}

	c.objectsMu.Lock()
	roots := make([]*Object, 0, len(c.objects))
	for _, obj := range c.objects {
		if obj.parent == nil {
			roots = append(roots, obj)
		}
	}
	c.objectsMu.Unlock()
	for _, root := range roots {
		c.disposeObject(root, false)
	}

	_ = c.transport.Close()
}

// newGUID mints a process-unique object id, "<type>@<ulid>".
func newGUID(objType string) string {
	return strings.ToLower(objType) + "@" + strings.ToLower(ulid.Make().String())
}

// marshalValue serializes params/results/initializers. json.RawMessage
// passes through, easyjson-aware values use their fast path, everything
// else goes through encoding/json.
func marshalValue(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return t, nil
	case easyjson.Marshaler:
		return easyjson.Marshal(t)
	default:
		return json.Marshal(v)
	}
}
