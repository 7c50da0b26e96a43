package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"github.com/oxtoacart/bpool"

	"github.com/understudy-dev/understudy/log"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsBufferSize       = 1 << 20
	wsWriteTimeout     = 30 * time.Second

	encodeBufferCount = 32
	encodeBufferWidth = 4096
)

// WebSocketTransport speaks the envelope protocol over a websocket. One
// goroutine pumps inbound frames; outbound writes are serialized with a
// mutex and encoded into pooled buffers.
type WebSocketTransport struct {
	logger *log.Logger
	wsURL  string
	ws     *websocket.Conn

	pool *bpool.BytePool

	writeMu   sync.Mutex
	onMessage func(*Message)
	onClose   func()

	closed atomic.Bool
	done   chan struct{}
}

// DialWebSocket connects to the peer's websocket endpoint.
func DialWebSocket(ctx context.Context, logger *log.Logger, wsURL string) (*WebSocketTransport, error) {
	wd := websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
		ReadBufferSize:   wsBufferSize,
		WriteBufferSize:  wsBufferSize,
		Proxy:            http.ProxyFromEnvironment,
	}
	ws, _, err := wd.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %q: %w", wsURL, err)
	}
	logger.Infof("WebSocketTransport", "connected to %q", wsURL)
	return NewWebSocketTransport(logger, wsURL, ws), nil
}

// NewWebSocketTransport wraps an established websocket connection. Used
// directly by the server role, which accepts rather than dials.
func NewWebSocketTransport(logger *log.Logger, wsURL string, ws *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{
		logger: logger,
		wsURL:  wsURL,
		ws:     ws,
		pool:   bpool.NewBytePool(encodeBufferCount, encodeBufferWidth),
		done:   make(chan struct{}),
	}
}

// SetOnMessage registers the single inbound message callback.
func (t *WebSocketTransport) SetOnMessage(fn func(*Message)) { t.onMessage = fn }

// SetOnClose registers the single close callback.
func (t *WebSocketTransport) SetOnClose(fn func()) { t.onClose = fn }

// Start launches the read pump. Callbacks must be registered beforehand.
func (t *WebSocketTransport) Start() {
	go t.readPump()
}

// Send encodes and writes one envelope as a text frame.
func (t *WebSocketTransport) Send(msg *Message) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	var enc jwriter.Writer
	msg.MarshalEasyJSON(&enc)
	reuse := t.pool.Get()
	defer t.pool.Put(reuse)
	buf, err := enc.BuildBytes(reuse)
	if err != nil {
		return fmt.Errorf("websocket transport: encoding message: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := t.ws.WriteMessage(websocket.TextMessage, buf); err != nil {
		return fmt.Errorf("websocket transport: writing to %q: %w", t.wsURL, err)
	}
	return nil
}

// Close sends a close frame on a best-effort basis, tears the socket down
// and fires the close callback once. The callback may re-enter Close
// (connection teardown closes the transport that reported the
// disconnect); the CAS guard makes that re-entry a no-op.
func (t *WebSocketTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(t.done)
	t.writeMu.Lock()
	_ = t.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()
	_ = t.ws.Close()
	if t.onClose != nil {
		t.onClose()
	}
	return nil
}

func (t *WebSocketTransport) readPump() {
	for {
		_, data, err := t.ws.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				t.logger.Debugf("WebSocketTransport:readPump", "wsURL:%q read error: %v", t.wsURL, err)
			}
			_ = t.Close()
			return
		}
		msg := &Message{}
		if err := easyjson.Unmarshal(data, msg); err != nil {
			t.logger.Errorf("WebSocketTransport:readPump", "wsURL:%q skipping malformed message: %v", t.wsURL, err)
			continue
		}
		if t.onMessage != nil {
			t.onMessage(msg)
		}
	}
}
