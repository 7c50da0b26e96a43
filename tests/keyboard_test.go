package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/understudy-dev/understudy/api"
)

func newTestKeyboard(t *testing.T) (*testPeer, api.Keyboard) {
	t.Helper()
	peer, browser := newTestPeer(t)
	ctx := testContext(t)

	bctx, err := browser.NewContext(ctx, nil)
	require.NoError(t, err)
	page, err := bctx.NewPage(ctx)
	require.NoError(t, err)
	return peer, page.Keyboard()
}

func TestKeyboardPressSendsDownThenUp(t *testing.T) {
	t.Parallel()

	peer, kb := newTestKeyboard(t)
	ctx := testContext(t)

	require.NoError(t, kb.Press(ctx, "Enter"))

	assert.Equal(t, []string{
		"keyboardDown Enter",
		"keyboardUp Enter",
	}, peer.trace())
}

func TestKeyboardShiftedKey(t *testing.T) {
	t.Parallel()

	peer, kb := newTestKeyboard(t)
	ctx := testContext(t)

	require.NoError(t, kb.Down(ctx, "Shift"))
	require.NoError(t, kb.Press(ctx, "a"))
	require.NoError(t, kb.Up(ctx, "Shift"))

	assert.Equal(t, []string{
		"keyboardDown Shift",
		"keyboardDown A",
		"keyboardUp A",
		"keyboardUp Shift",
	}, peer.trace())
}

func TestKeyboardTypeMixesPressAndInsert(t *testing.T) {
	t.Parallel()

	peer, kb := newTestKeyboard(t)
	ctx := testContext(t)

	require.NoError(t, kb.Type(ctx, "hi é"))

	assert.Equal(t, []string{
		"keyboardDown h",
		"keyboardUp h",
		"keyboardDown i",
		"keyboardUp i",
		"keyboardDown  ",
		"keyboardUp  ",
		"keyboardInsertText é",
	}, peer.trace())
}

func TestKeyboardUnknownKey(t *testing.T) {
	t.Parallel()

	_, kb := newTestKeyboard(t)
	ctx := testContext(t)

	err := kb.Down(ctx, "NoSuchKey")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid key")
}
