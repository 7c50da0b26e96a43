package channel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/understudy-dev/understudy/log"
)

// slowMoQueueSize bounds the number of delayed messages waiting to be
// forwarded before Send starts blocking.
const slowMoQueueSize = 256

type delayedMessage struct {
	msg *Message
	due time.Time
}

// SlowMoTransport holds every outbound message for a fixed duration before
// forwarding it, so automation becomes observable at human speed. A single
// forwarder goroutine drains a FIFO of due times, so relative order is
// preserved: messages enqueued A then B with the same delay come due A
// then B.
type SlowMoTransport struct {
	Transport

	logger *log.Logger
	delay  time.Duration

	queue  chan delayedMessage
	closed atomic.Bool
	done   chan struct{}
}

// NewSlowMoTransport wraps delegate with a constant per-message delay.
func NewSlowMoTransport(logger *log.Logger, delegate Transport, delay time.Duration) *SlowMoTransport {
	t := &SlowMoTransport{
		Transport: delegate,
		logger:    logger,
		delay:     delay,
		queue:     make(chan delayedMessage, slowMoQueueSize),
		done:      make(chan struct{}),
	}
	go t.forward()
	return t
}

// Send enqueues the message for delayed forwarding. Delivery errors are
// reported asynchronously through the delegate's close path, as with any
// network failure.
func (t *SlowMoTransport) Send(msg *Message) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}
	entry := delayedMessage{msg: msg, due: time.Now().Add(t.delay)}
	select {
	case t.queue <- entry:
		return nil
	case <-t.done:
		return ErrTransportClosed
	}
}

// Close stops the forwarder and closes the delegate. Messages still
// queued are dropped, matching an abrupt disconnect. Re-entry through the
// delegate's close callback is a no-op.
func (t *SlowMoTransport) Close() error {
	if t.closed.CompareAndSwap(false, true) {
		close(t.done)
	}
	return t.Transport.Close()
}

func (t *SlowMoTransport) forward() {
	for {
		select {
		case <-t.done:
			return
		case entry := <-t.queue:
			if wait := time.Until(entry.due); wait > 0 {
				select {
				case <-time.After(wait):
				case <-t.done:
					return
				}
			}
			if err := t.Transport.Send(entry.msg); err != nil {
				t.logger.Debugf("SlowMoTransport:forward", "delayed send failed: %v", err)
			}
		}
	}
}

// DeferredWriteTransport withholds outbound messages until at least one
// inbound message has been received, to avoid racing a peer that is still
// initializing. Withheld messages are flushed in their original order.
type DeferredWriteTransport struct {
	Transport

	mu       sync.Mutex
	received bool
	pending  []*Message
}

// NewDeferredWriteTransport wraps delegate in deferred-write behavior.
func NewDeferredWriteTransport(delegate Transport) *DeferredWriteTransport {
	return &DeferredWriteTransport{Transport: delegate}
}

// SetOnMessage interposes on the inbound path to detect the first message.
func (t *DeferredWriteTransport) SetOnMessage(fn func(*Message)) {
	t.Transport.SetOnMessage(func(msg *Message) {
		t.flushAfterFirstInbound()
		fn(msg)
	})
}

// Send forwards immediately once the peer has spoken, and queues before.
func (t *DeferredWriteTransport) Send(msg *Message) error {
	t.mu.Lock()
	if !t.received {
		t.pending = append(t.pending, msg)
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	return t.Transport.Send(msg)
}

func (t *DeferredWriteTransport) flushAfterFirstInbound() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.received {
		return
	}
	// Flush under the lock so a concurrent Send cannot overtake the
	// withheld messages.
	for _, msg := range t.pending {
		_ = t.Transport.Send(msg)
	}
	t.pending = nil
	t.received = true
}

// Interceptor rewrites an outbound request. It must be pure: return the
// message unchanged or a replacement, never mutate shared state.
type Interceptor func(*Message) *Message

// InterceptTransport applies an Interceptor to every outbound Request.
// Responses and Events pass through untouched. Used for diagnostics.
type InterceptTransport struct {
	Transport

	rewrite Interceptor
}

// NewInterceptTransport wraps delegate with a request rewriter.
func NewInterceptTransport(delegate Transport, rewrite Interceptor) *InterceptTransport {
	return &InterceptTransport{Transport: delegate, rewrite: rewrite}
}

// Send rewrites requests and forwards everything else as-is.
func (t *InterceptTransport) Send(msg *Message) error {
	if msg.ID != 0 && msg.Method != "" {
		if out := t.rewrite(msg); out != nil {
			msg = out
		}
	}
	return t.Transport.Send(msg)
}
