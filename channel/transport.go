package channel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"

	"github.com/understudy-dev/understudy/log"
)

// Transport moves envelopes between the two ends of a Connection. A
// transport never reorders messages. SetOnMessage and SetOnClose register
// at most one callback each and must be called before Start. The close
// callback fires exactly once, whether Close was called locally, the peer
// disconnected, or both. Send after Close returns ErrTransportClosed.
type Transport interface {
	Send(msg *Message) error
	SetOnMessage(fn func(*Message))
	SetOnClose(fn func())
	Start()
	Close() error
}

// maxFrameSize bounds a single pipe frame (64 MiB).
const maxFrameSize = 64 << 20

// PipeTransport frames envelopes over a byte stream with a 4-byte
// little-endian length prefix. It is used for subprocess stdio pipes and,
// through NewLoopbackPair, for in-process peers.
type PipeTransport struct {
	logger *log.Logger

	r io.Reader
	w io.Writer

	writeMu   sync.Mutex
	onMessage func(*Message)
	onClose   func()

	closed  atomic.Bool
	done    chan struct{}
	closers []io.Closer
}

// NewPipeTransport returns a transport reading envelopes from r and
// writing them to w. Any of r, w that also implement io.Closer are closed
// on Close.
func NewPipeTransport(logger *log.Logger, r io.Reader, w io.Writer) *PipeTransport {
	t := &PipeTransport{
		logger: logger,
		r:      r,
		w:      w,
		done:   make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		t.closers = append(t.closers, c)
	}
	if c, ok := w.(io.Closer); ok {
		t.closers = append(t.closers, c)
	}
	return t
}

// SetOnMessage registers the single inbound message callback.
func (t *PipeTransport) SetOnMessage(fn func(*Message)) { t.onMessage = fn }

// SetOnClose registers the single close callback.
func (t *PipeTransport) SetOnClose(fn func()) { t.onClose = fn }

// Start launches the read pump. Callbacks must be registered beforehand.
func (t *PipeTransport) Start() {
	go t.readPump()
}

// Send writes one framed envelope. Concurrent senders are serialized so
// frames never interleave.
func (t *PipeTransport) Send(msg *Message) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	var enc jwriter.Writer
	msg.MarshalEasyJSON(&enc)
	buf, err := enc.BuildBytes()
	if err != nil {
		return fmt.Errorf("pipe transport: encoding message: %w", err)
	}
	// Enforce the frame limit on both directions: an oversized message
	// fails this one send instead of making the peer kill the connection.
	if len(buf) > maxFrameSize {
		return fmt.Errorf("pipe transport: message of %d bytes exceeds the %d byte frame limit", len(buf), maxFrameSize)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(buf)))

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(prefix[:]); err != nil {
		return fmt.Errorf("pipe transport: writing frame length: %w", err)
	}
	if _, err := t.w.Write(buf); err != nil {
		return fmt.Errorf("pipe transport: writing frame: %w", err)
	}
	return nil
}

// Close shuts the transport down and fires the close callback once. The
// callback may itself call Close again (connection teardown closes the
// transport that reported the disconnect); the CAS guard makes that
// re-entry a no-op.
func (t *PipeTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(t.done)
	for _, c := range t.closers {
		_ = c.Close()
	}
	if t.onClose != nil {
		t.onClose()
	}
	return nil
}

func (t *PipeTransport) readPump() {
	var prefix [4]byte
	for {
		if _, err := io.ReadFull(t.r, prefix[:]); err != nil {
			t.handleReadError(err)
			return
		}
		n := binary.LittleEndian.Uint32(prefix[:])
		if n > maxFrameSize {
			t.logger.Errorf("PipeTransport:readPump", "frame of %d bytes exceeds limit", n)
			_ = t.Close()
			return
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(t.r, buf); err != nil {
			t.handleReadError(err)
			return
		}
		msg := &Message{}
		if err := easyjson.Unmarshal(buf, msg); err != nil {
			t.logger.Errorf("PipeTransport:readPump", "skipping malformed frame: %v", err)
			continue
		}
		if t.onMessage != nil {
			t.onMessage(msg)
		}
	}
}

func (t *PipeTransport) handleReadError(err error) {
	select {
	case <-t.done:
	default:
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
			t.logger.Errorf("PipeTransport:readPump", "read error: %v", err)
		}
	}
	_ = t.Close()
}

// NewLoopbackPair returns two cross-connected pipe transports. Messages
// sent on one are delivered to the other, in order. Closing either side
// closes both.
func NewLoopbackPair(logger *log.Logger) (*PipeTransport, *PipeTransport) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	a := NewPipeTransport(logger, ar, aw)
	b := NewPipeTransport(logger, br, bw)
	return a, b
}
