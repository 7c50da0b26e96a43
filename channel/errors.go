package channel

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionClosed rejects every call still pending when the
	// transport goes away, and every call issued afterwards.
	ErrConnectionClosed = errors.New("protocol connection closed")

	// ErrTransportClosed is returned by Transport.Send after Close. Sending
	// on a closed transport is a programming error and fails fast.
	ErrTransportClosed = errors.New("transport closed")

	// ErrTooManyCalls is returned when the pending-call table is full.
	ErrTooManyCalls = errors.New("too many outstanding protocol calls")
)

// RemoteError is a failure reported by the peer. It carries only the
// flattened message and stack from the wire; no typed hierarchy is
// reconstructed.
type RemoteError struct {
	Name    string
	Message string
	Stack   string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Format prints the remote stack with %+v.
func (e *RemoteError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, e.Message) //nolint:errcheck
			if e.Stack != "" {
				io.WriteString(s, "\n")    //nolint:errcheck
				io.WriteString(s, e.Stack) //nolint:errcheck
			}
			return
		}
		fallthrough
	case 's', 'q':
		io.WriteString(s, e.Message) //nolint:errcheck
	}
}

// toError rehydrates the payload into a local error value.
func (p *ErrorPayload) toError() error {
	if p == nil {
		return nil
	}
	return &RemoteError{
		Name:    p.Name,
		Message: p.Message,
		Stack:   p.Stack,
	}
}

// errorPayloadFrom flattens a local error for the wire. A *RemoteError
// passing back through keeps its original stack.
func errorPayloadFrom(err error) *ErrorPayload {
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		return &ErrorPayload{Name: rerr.Name, Message: rerr.Message, Stack: rerr.Stack}
	}
	p := &ErrorPayload{Message: err.Error()}
	if st, ok := err.(stackTracer); ok {
		p.Stack = fmt.Sprintf("%+v", st.StackTrace())
	}
	return p
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// CallError wraps a failed protocol call. The message is prefixed with the
// originating operation and %+v splices the call-site frames captured
// before the round trip above the remote failure's own trace.
type CallError struct {
	op   string
	err  error
	site error // marker created at the call site, carries the local stack
}

func newCallError(op string, site, err error) *CallError {
	return &CallError{op: op, err: err, site: site}
}

// callSiteMarker captures the caller's stack before a round trip begins.
func callSiteMarker(op string) error {
	return errors.New(op)
}

func (e *CallError) Error() string {
	return e.op + ": " + e.err.Error()
}

// Unwrap exposes the underlying remote or disconnection error.
func (e *CallError) Unwrap() error {
	return e.err
}

// Cause implements the pkg/errors causer interface.
func (e *CallError) Cause() error {
	return e.err
}

// Format prints, with %+v, the failure followed by the local call-site
// trace and, for remote failures, the peer-side trace.
func (e *CallError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.op, e.err)
		if st, ok := e.site.(stackTracer); ok {
			fmt.Fprintf(s, "%+v", st.StackTrace())
		}
		return
	}
	io.WriteString(s, e.Error()) //nolint:errcheck
}
