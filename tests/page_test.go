package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/understudy-dev/understudy/api"
)

func newTestPage(t *testing.T) (*testPeer, api.Page) {
	t.Helper()
	peer, browser := newTestPeer(t)
	ctx := testContext(t)

	bctx, err := browser.NewContext(ctx, nil)
	require.NoError(t, err)
	page, err := bctx.NewPage(ctx)
	require.NoError(t, err)
	return peer, page
}

func TestPageActionsDelegateToMainFrame(t *testing.T) {
	t.Parallel()

	peer, page := newTestPage(t)
	ctx := testContext(t)

	require.NoError(t, page.Click(ctx, "#submit", nil))
	require.NoError(t, page.Fill(ctx, "#name", "gus", nil))

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", title)

	content, err := page.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, content, "<html>")

	assert.Equal(t, []string{"click #submit", "fill #name"}, peer.trace())
}

func TestPageReload(t *testing.T) {
	t.Parallel()

	_, page := newTestPage(t)
	ctx := testContext(t)

	resp, err := page.Reload(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestQueryReturnsElementHandle(t *testing.T) {
	t.Parallel()

	peer, page := newTestPage(t)
	ctx := testContext(t)

	elem, err := page.Query(ctx, "#hello")
	require.NoError(t, err)
	require.NotNil(t, elem)

	require.NoError(t, elem.Click(ctx, nil))
	require.NoError(t, elem.Fill(ctx, "world", nil))
	text, err := elem.TextContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	assert.Equal(t, []string{"element click", "element fill world"}, peer.trace())

	elem.Dispose()
	elem.Dispose() // second dispose is a no-op
}

func TestQueryMissReturnsNil(t *testing.T) {
	t.Parallel()

	_, page := newTestPage(t)
	ctx := testContext(t)

	elem, err := page.Query(ctx, "#missing")
	require.NoError(t, err)
	assert.Nil(t, elem)
}

func TestFrameEvaluateRoundTripsArg(t *testing.T) {
	t.Parallel()

	_, page := newTestPage(t)
	ctx := testContext(t)

	value, err := page.MainFrame().Evaluate(ctx, "(x) => x", map[string]any{"n": 41.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 41.0}, value)
}

func TestPageCloseMarksClosed(t *testing.T) {
	t.Parallel()

	_, page := newTestPage(t)
	ctx := testContext(t)

	closed := make(chan struct{})
	page.On("close", func(any) { close(closed) })

	require.NoError(t, page.Close(ctx))
	<-closed
	assert.True(t, page.IsClosed())
}
