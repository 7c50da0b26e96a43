// Package driver bootstraps a connection to an automation server, either
// over a websocket endpoint or by launching the server as a subprocess and
// speaking over its stdio.
package driver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/common"
)

// Connect dials the server's websocket endpoint and waits for it to
// announce the root Browser object.
func Connect(ctx context.Context, wsURL string, opts ...Option) (api.Browser, error) {
	o := newOptions(opts)

	ws, err := channel.DialWebSocket(ctx, o.logger, wsURL)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", wsURL)
	}

	conn := channel.NewConnection(o.logger, wrapTransport(o, ws),
		common.NewObjectFactory(o.logger, o.persister))
	return waitForBrowser(ctx, conn)
}

// Launch starts the server at path as a subprocess, connects over its
// stdio and waits for the root Browser object. The process is terminated
// when the connection goes away.
func Launch(ctx context.Context, path string, args []string, opts ...Option) (api.Browser, error) {
	o := newOptions(opts)

	proc, pipe, err := launchProcess(ctx, o.logger, path, args, o.env)
	if err != nil {
		return nil, errors.Wrapf(err, "launching %s", path)
	}

	// Hold writes back until the server speaks first, so a booting
	// process never sees a partial frame.
	transport := wrapTransport(o, channel.NewDeferredWriteTransport(pipe))
	conn := channel.NewConnection(o.logger, transport,
		common.NewObjectFactory(o.logger, o.persister))

	go func() {
		<-conn.Done()
		proc.Terminate()
	}()

	browser, err := waitForBrowser(ctx, conn)
	if err != nil {
		proc.Terminate()
		return nil, err
	}
	return browser, nil
}

func wrapTransport(o *options, t channel.Transport) channel.Transport {
	if o.slowMo > 0 {
		t = channel.NewSlowMoTransport(o.logger, t, o.slowMo)
	}
	if o.interceptor != nil {
		t = channel.NewInterceptTransport(t, o.interceptor)
	}
	return t
}

func waitForBrowser(ctx context.Context, conn *channel.Connection) (api.Browser, error) {
	obj, err := conn.WaitForObject(ctx, "Browser")
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "waiting for the browser object")
	}
	browser, ok := obj.Proxy().(*common.Browser)
	if !ok {
		_ = conn.Close()
		return nil, errors.Errorf("object %q has no browser proxy", obj.GUID())
	}
	return browser, nil
}
