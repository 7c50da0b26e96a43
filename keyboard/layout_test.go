package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutForUS(t *testing.T) {
	t.Parallel()

	l := LayoutFor("us")
	require.Equal(t, "us", l.Name)

	assert.True(t, l.IsValidKey("KeyA"), "code")
	assert.True(t, l.IsValidKey("a"), "key value")
	assert.True(t, l.IsValidKey("A"), "shifted key value")
	assert.True(t, l.IsValidKey("Enter"))
	assert.False(t, l.IsValidKey("NoSuchKey"))
}

func TestModifiedKeyDefinition(t *testing.T) {
	t.Parallel()

	l := LayoutFor("us")

	tests := []struct {
		name     string
		key      Key
		mods     ModifierKey
		wantKey  string
		wantText string
		wantCode string
	}{
		{
			name:     "plain_letter",
			key:      "a",
			wantKey:  "a",
			wantText: "a",
			wantCode: "KeyA",
		},
		{
			name:     "shift_modifier",
			key:      "a",
			mods:     ModifierKeyShift,
			wantKey:  "A",
			wantText: "A",
			wantCode: "KeyA",
		},
		{
			name:     "shifted_value_implies_shift",
			key:      "A",
			wantKey:  "A",
			wantText: "A",
			wantCode: "KeyA",
		},
		{
			name:     "control_suppresses_text",
			key:      "a",
			mods:     ModifierKeyControl,
			wantKey:  "a",
			wantText: "",
			wantCode: "KeyA",
		},
		{
			name:     "named_key_has_no_text",
			key:      "Backspace",
			wantKey:  "Backspace",
			wantText: "",
			wantCode: "Backspace",
		},
		{
			name:     "enter_carries_return",
			key:      "Enter",
			wantKey:  "Enter",
			wantText: "\r",
			wantCode: "Enter",
		},
		{
			name:     "shifted_digit",
			key:      "1",
			mods:     ModifierKeyShift,
			wantKey:  "!",
			wantText: "!",
			wantCode: "Digit1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := l.ModifiedKeyDefinition(tt.key, tt.mods)
			assert.Equal(t, tt.wantKey, d.Key)
			assert.Equal(t, tt.wantText, d.Text)
			assert.Equal(t, tt.wantCode, d.Code)
		})
	}
}

func TestModifierBitFromKey(t *testing.T) {
	t.Parallel()

	l := LayoutFor("us")
	assert.Equal(t, ModifierKeyShift, l.ModifierBitFromKey("Shift"))
	assert.Equal(t, ModifierKeyControl, l.ModifierBitFromKey("Control"))
	assert.Equal(t, ModifierKeyAlt, l.ModifierBitFromKey("Alt"))
	assert.Equal(t, ModifierKeyMeta, l.ModifierBitFromKey("Meta"))
	assert.Zero(t, l.ModifierBitFromKey("a"))
}
