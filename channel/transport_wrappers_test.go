package channel

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/understudy-dev/understudy/log"
)

// fakeTransport records outbound messages and lets tests inject inbound
// ones.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []*Message
	onMessage func(*Message)
	onClose   func()
	closed    bool
}

func (t *fakeTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) SetOnMessage(fn func(*Message)) { t.onMessage = fn }
func (t *fakeTransport) SetOnClose(fn func())           { t.onClose = fn }
func (t *fakeTransport) Start()                         {}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	wasClosed := t.closed
	t.closed = true
	t.mu.Unlock()
	if !wasClosed && t.onClose != nil {
		t.onClose()
	}
	return nil
}

func (t *fakeTransport) deliver(msg *Message) {
	t.onMessage(msg)
}

func (t *fakeTransport) sentMessages() []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Message(nil), t.sent...)
}

func (t *fakeTransport) waitSent(tb testing.TB, n int) []*Message {
	tb.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := t.sentMessages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(time.Millisecond)
	}
	tb.Fatalf("timed out waiting for %d sent messages", n)
	return nil
}

func TestSlowMoTransportDelaysAndPreservesOrder(t *testing.T) {
	t.Parallel()

	fake := &fakeTransport{}
	const delay = 50 * time.Millisecond
	tr := NewSlowMoTransport(log.NewNullLogger(), fake, delay)
	defer tr.Close() //nolint:errcheck

	start := time.Now()
	require.NoError(t, tr.Send(&Message{ID: 1, Method: "a"}))
	require.NoError(t, tr.Send(&Message{ID: 2, Method: "b"}))

	msgs := fake.waitSent(t, 2)
	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.EqualValues(t, 1, msgs[0].ID)
	assert.EqualValues(t, 2, msgs[1].ID)
}

func TestSlowMoTransportSendAfterClose(t *testing.T) {
	t.Parallel()

	tr := NewSlowMoTransport(log.NewNullLogger(), &fakeTransport{}, time.Millisecond)
	require.NoError(t, tr.Close())
	assert.ErrorIs(t, tr.Send(&Message{ID: 1, Method: "a"}), ErrTransportClosed)
}

func TestDeferredWriteTransportWithholdsUntilFirstInbound(t *testing.T) {
	t.Parallel()

	fake := &fakeTransport{}
	tr := NewDeferredWriteTransport(fake)

	var inbound []*Message
	tr.SetOnMessage(func(msg *Message) { inbound = append(inbound, msg) })

	require.NoError(t, tr.Send(&Message{ID: 1, Method: "a"}))
	require.NoError(t, tr.Send(&Message{ID: 2, Method: "b"}))
	assert.Empty(t, fake.sentMessages(), "nothing may hit the wire before the peer speaks")

	fake.deliver(&Message{Method: "__create__"})

	msgs := fake.sentMessages()
	require.Len(t, msgs, 2)
	assert.EqualValues(t, 1, msgs[0].ID)
	assert.EqualValues(t, 2, msgs[1].ID)
	require.Len(t, inbound, 1)

	// Later sends pass straight through.
	require.NoError(t, tr.Send(&Message{ID: 3, Method: "c"}))
	assert.Len(t, fake.sentMessages(), 3)
}

func TestInterceptTransportRewritesRequestsOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeTransport{}
	tr := NewInterceptTransport(fake, func(msg *Message) *Message {
		out := *msg
		out.Params = json.RawMessage(`{"rewritten":true}`)
		return &out
	})

	require.NoError(t, tr.Send(&Message{ID: 1, Method: "goto", Params: json.RawMessage(`{}`)}))
	require.NoError(t, tr.Send(&Message{ID: 2, Result: json.RawMessage(`{}`)}))
	require.NoError(t, tr.Send(&Message{Method: "navigated", Params: json.RawMessage(`{}`)}))

	msgs := fake.sentMessages()
	require.Len(t, msgs, 3)
	assert.JSONEq(t, `{"rewritten":true}`, string(msgs[0].Params), "request is rewritten")
	assert.JSONEq(t, `{}`, string(msgs[1].Result), "response passes through")
	assert.JSONEq(t, `{}`, string(msgs[2].Params), "event passes through")
}

func TestInterceptTransportNilResultKeepsOriginal(t *testing.T) {
	t.Parallel()

	fake := &fakeTransport{}
	tr := NewInterceptTransport(fake, func(*Message) *Message { return nil })

	require.NoError(t, tr.Send(&Message{ID: 1, Method: "goto"}))
	msgs := fake.sentMessages()
	require.Len(t, msgs, 1)
	assert.EqualValues(t, 1, msgs[0].ID)
}
