// Package tests runs the driver API end to end against a scripted
// automation server speaking the real protocol over an in-process pipe
// pair.
package tests

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/common"
	"github.com/understudy-dev/understudy/log"
)

// testPeer plays the server role: it owns the server-side object tree and
// answers the driver's requests with canned behavior.
type testPeer struct {
	t    *testing.T
	conn *channel.Connection

	browser *channel.Object

	mu           sync.Mutex
	log          []string // method trace, e.g. "keyboardDown a"
	artifactData []byte
}

// newTestPeer wires a scripted server and a real driver-side connection
// over a loopback pair and returns the driver's Browser along with the
// peer for scripting and assertions.
func newTestPeer(t *testing.T) (*testPeer, api.Browser) {
	t.Helper()
	logger := log.NewNullLogger()
	clientTr, serverTr := channel.NewLoopbackPair(logger)

	peer := &testPeer{t: t}
	peer.conn = channel.NewConnection(logger, serverTr, nil)

	// The loopback pair is built on synchronous io.Pipe, so the client
	// connection's read pump must be running before the server announces
	// the Browser root, or the announcement write blocks forever.
	client := channel.NewConnection(logger, clientTr, common.NewObjectFactory(logger, nil))
	t.Cleanup(func() {
		_ = client.Close()
		_ = peer.conn.Close()
	})

	var err error
	peer.browser, err = peer.conn.CreateObject(nil, "Browser",
		map[string]string{"name": "understudy", "version": "1.0"})
	require.NoError(t, err)
	peer.browser.SetRequestHandler(peer.handleBrowser)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obj, err := client.WaitForObject(ctx, "Browser")
	require.NoError(t, err)
	browser, ok := obj.Proxy().(*common.Browser)
	require.True(t, ok)
	return peer, browser
}

func (p *testPeer) record(entry string) {
	p.mu.Lock()
	p.log = append(p.log, entry)
	p.mu.Unlock()
}

// trace returns a snapshot of the methods the peer has served.
func (p *testPeer) trace() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.log...)
}

// setArtifactData sets the bytes the next screenshot artifact will stream.
func (p *testPeer) setArtifactData(data []byte) {
	p.mu.Lock()
	p.artifactData = data
	p.mu.Unlock()
}

// close tears the server side down, as a crashing server process would.
func (p *testPeer) close() {
	_ = p.conn.Close()
}

func ref(obj *channel.Object) map[string]any {
	return map[string]any{"guid": obj.GUID()}
}

func (p *testPeer) handleBrowser(method string, _ json.RawMessage) (any, error) {
	switch method {
	case "newContext":
		bctx, err := p.conn.CreateObject(p.browser, "BrowserContext", nil)
		if err != nil {
			return nil, err
		}
		bctx.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			return p.handleContext(bctx, method, params)
		})
		return map[string]any{"context": ref(bctx)}, nil
	case "close":
		p.browser.Dispose()
		return nil, nil
	default:
		return nil, fmt.Errorf("browser: unsupported method %q", method)
	}
}

func (p *testPeer) handleContext(bctx *channel.Object, method string, _ json.RawMessage) (any, error) {
	switch method {
	case "newPage":
		frame, err := p.conn.CreateObject(bctx, "Frame",
			map[string]string{"name": "", "url": "about:blank"})
		if err != nil {
			return nil, err
		}
		frame.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			return p.handleFrame(frame, method, params)
		})

		page, err := p.conn.CreateObject(bctx, "Page", map[string]any{
			"mainFrame":    ref(frame),
			"viewportSize": map[string]int{"width": 1280, "height": 720},
		})
		if err != nil {
			return nil, err
		}
		page.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			return p.handlePage(page, method, params)
		})

		// Announce the page before the response referencing it resolves.
		if err := bctx.EmitToPeer("page", map[string]any{"page": ref(page)}); err != nil {
			return nil, err
		}
		return map[string]any{"page": ref(page)}, nil
	case "close":
		if err := bctx.EmitToPeer("close", nil); err != nil {
			return nil, err
		}
		bctx.Dispose()
		return nil, nil
	default:
		return nil, fmt.Errorf("browser context: unsupported method %q", method)
	}
}

func (p *testPeer) handlePage(page *channel.Object, method string, params json.RawMessage) (any, error) {
	switch method {
	case "keyboardDown", "keyboardUp":
		var key struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(params, &key); err != nil {
			return nil, err
		}
		p.record(method + " " + key.Key)
		return nil, nil
	case "keyboardInsertText":
		var text struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(params, &text); err != nil {
			return nil, err
		}
		p.record(method + " " + text.Text)
		return nil, nil
	case "reload":
		return map[string]any{"response": map[string]any{
			"url": "about:blank", "status": 200, "ok": true,
		}}, nil
	case "screenshot":
		artifact, err := p.conn.CreateObject(page, "Artifact",
			map[string]string{"absolutePath": "/remote/screenshot.png"})
		if err != nil {
			return nil, err
		}
		artifact.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			return p.handleArtifact(artifact, method, params)
		})
		return map[string]any{"artifact": ref(artifact)}, nil
	case "close":
		if err := page.EmitToPeer("close", nil); err != nil {
			return nil, err
		}
		page.Dispose()
		return nil, nil
	default:
		return nil, fmt.Errorf("page: unsupported method %q", method)
	}
}

func (p *testPeer) handleFrame(frame *channel.Object, method string, params json.RawMessage) (any, error) {
	switch method {
	case "goto":
		var nav struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(params, &nav); err != nil {
			return nil, err
		}
		p.record("goto " + nav.URL)
		if err := frame.EmitToPeer("navigated",
			map[string]string{"url": nav.URL, "name": ""}); err != nil {
			return nil, err
		}
		return map[string]any{"response": map[string]any{
			"url": nav.URL, "status": 200, "ok": true,
		}}, nil
	case "click", "fill":
		var sel struct {
			Selector string `json:"selector"`
		}
		if err := json.Unmarshal(params, &sel); err != nil {
			return nil, err
		}
		p.record(method + " " + sel.Selector)
		return nil, nil
	case "title":
		return map[string]string{"value": "Example Domain"}, nil
	case "content":
		return map[string]string{"value": "<html><body>Example</body></html>"}, nil
	case "evaluate":
		var eval struct {
			Arg any `json:"arg"`
		}
		if err := json.Unmarshal(params, &eval); err != nil {
			return nil, err
		}
		return map[string]any{"value": eval.Arg}, nil
	case "query":
		var sel struct {
			Selector string `json:"selector"`
		}
		if err := json.Unmarshal(params, &sel); err != nil {
			return nil, err
		}
		if sel.Selector == "#missing" {
			return map[string]any{"element": nil}, nil
		}
		elem, err := p.conn.CreateObject(frame, "ElementHandle", nil)
		if err != nil {
			return nil, err
		}
		elem.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			return p.handleElement(elem, method, params)
		})
		return map[string]any{"element": ref(elem)}, nil
	default:
		return nil, fmt.Errorf("frame: unsupported method %q", method)
	}
}

func (p *testPeer) handleElement(_ *channel.Object, method string, params json.RawMessage) (any, error) {
	switch method {
	case "click":
		p.record("element click")
		return nil, nil
	case "fill":
		var fill struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(params, &fill); err != nil {
			return nil, err
		}
		p.record("element fill " + fill.Value)
		return nil, nil
	case "textContent":
		return map[string]string{"value": "hello"}, nil
	default:
		return nil, fmt.Errorf("element: unsupported method %q", method)
	}
}

func (p *testPeer) handleArtifact(artifact *channel.Object, method string, _ json.RawMessage) (any, error) {
	switch method {
	case "saveAsStream":
		p.mu.Lock()
		data := p.artifactData
		p.mu.Unlock()

		stream, err := p.conn.CreateObject(artifact, "Stream", nil)
		if err != nil {
			return nil, err
		}
		offset := 0
		stream.SetRequestHandler(func(method string, params json.RawMessage) (any, error) {
			switch method {
			case "read":
				var read struct {
					Size int `json:"size"`
				}
				if err := json.Unmarshal(params, &read); err != nil {
					return nil, err
				}
				if offset >= len(data) {
					return map[string]string{"binary": ""}, nil
				}
				end := offset + read.Size
				if end > len(data) {
					end = len(data)
				}
				chunk := base64.StdEncoding.EncodeToString(data[offset:end])
				offset = end
				return map[string]string{"binary": chunk}, nil
			case "close":
				return nil, nil
			default:
				return nil, fmt.Errorf("stream: unsupported method %q", method)
			}
		})
		return map[string]any{"stream": ref(stream)}, nil
	case "delete":
		artifact.Dispose()
		return nil, nil
	default:
		return nil, fmt.Errorf("artifact: unsupported method %q", method)
	}
}
