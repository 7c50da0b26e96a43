// Package channel implements the remote-object protocol that connects the
// driver-side API to the browser server: a tree of uniquely identified
// objects is mirrored across a Transport, calls on local proxies are
// correlated with responses by id, and the peer pushes events and object
// lifecycle notifications at any time.
package channel

import (
	"encoding/json"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Reserved event methods carrying object lifecycle.
const (
	methodCreate  = "__create__"
	methodDispose = "__dispose__"
)

// Message is a single wire envelope. The kind is structural:
//
//	Request:  ID != 0 and Method != ""
//	Response: ID != 0 and Method == "", exactly one of Result/Error set
//	Event:    ID == 0 and Method != ""
//
// GUID addresses the target object; the empty GUID addresses the peer's
// root scope.
type Message struct {
	ID     int64           `json:"id,omitempty"`
	GUID   string          `json:"guid,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload is the flattened form an error takes on the wire. Non-error
// thrown values are inspected into Message with an empty Stack.
type ErrorPayload struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// createParams is the payload of a __create__ event. GUID of the enclosing
// message names the parent ("" for roots).
type createParams struct {
	Type        string          `json:"type"`
	GUID        string          `json:"guid"`
	Initializer json.RawMessage `json:"initializer,omitempty"`
}

// MarshalEasyJSON encodes the message, omitting empty fields.
func (m Message) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	first := true
	field := func(name string) {
		if !first {
			w.RawByte(',')
		}
		first = false
		w.RawString(`"` + name + `":`)
	}
	if m.ID != 0 {
		field("id")
		w.Int64(m.ID)
	}
	if m.GUID != "" {
		field("guid")
		w.String(m.GUID)
	}
	if m.Method != "" {
		field("method")
		w.String(m.Method)
	}
	if len(m.Params) != 0 {
		field("params")
		w.Raw(m.Params, nil)
	}
	if len(m.Result) != 0 {
		field("result")
		w.Raw(m.Result, nil)
	}
	if m.Error != nil {
		field("error")
		m.Error.MarshalEasyJSON(w)
	}
	w.RawByte('}')
}

// UnmarshalEasyJSON decodes the message, ignoring unknown fields.
func (m *Message) UnmarshalEasyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	if l.IsNull() {
		if isTopLevel {
			l.Consumed()
		}
		l.Skip()
		return
	}
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		if l.IsNull() {
			l.Skip()
			l.WantComma()
			continue
		}
		switch key {
		case "id":
			m.ID = l.Int64()
		case "guid":
			m.GUID = l.String()
		case "method":
			m.Method = l.String()
		case "params":
			m.Params = json.RawMessage(l.Raw())
		case "result":
			m.Result = json.RawMessage(l.Raw())
		case "error":
			m.Error = new(ErrorPayload)
			m.Error.UnmarshalEasyJSON(l)
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
	if isTopLevel {
		l.Consumed()
	}
}

// MarshalJSON implements json.Marshaler through the easyjson encoder.
func (m Message) MarshalJSON() ([]byte, error) {
	var w jwriter.Writer
	m.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

// UnmarshalJSON implements json.Unmarshaler through the easyjson decoder.
func (m *Message) UnmarshalJSON(data []byte) error {
	l := jlexer.Lexer{Data: data}
	m.UnmarshalEasyJSON(&l)
	return l.Error()
}

func (p ErrorPayload) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	first := true
	field := func(name string) {
		if !first {
			w.RawByte(',')
		}
		first = false
		w.RawString(`"` + name + `":`)
	}
	if p.Name != "" {
		field("name")
		w.String(p.Name)
	}
	field("message")
	w.String(p.Message)
	if p.Stack != "" {
		field("stack")
		w.String(p.Stack)
	}
	w.RawByte('}')
}

func (p *ErrorPayload) UnmarshalEasyJSON(l *jlexer.Lexer) {
	if l.IsNull() {
		l.Skip()
		return
	}
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		if l.IsNull() {
			l.Skip()
			l.WantComma()
			continue
		}
		switch key {
		case "name":
			p.Name = l.String()
		case "message":
			p.Message = l.String()
		case "stack":
			p.Stack = l.String()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

var (
	_ easyjson.Marshaler   = Message{}
	_ easyjson.Unmarshaler = &Message{}
)
