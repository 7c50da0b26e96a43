package common

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/keyboard"
	"github.com/understudy-dev/understudy/log"
)

var _ api.Keyboard = &Keyboard{}

// Keyboard represents a page's keyboard input device. Key state lives on
// this side; the peer only sees the resulting key event calls.
type Keyboard struct {
	obj    *channel.Object
	logger *log.Logger

	mu          sync.Mutex
	layout      keyboard.Layout
	modifiers   keyboard.ModifierKey // like shift, alt, ctrl, ...
	pressedKeys map[int64]bool       // tracks keys through down() and up()
}

// NewKeyboard returns a new keyboard with a "us" layout, sending its key
// events through the page object obj.
func NewKeyboard(obj *channel.Object, logger *log.Logger) *Keyboard {
	return &Keyboard{
		obj:         obj,
		logger:      logger,
		layout:      keyboard.LayoutFor("us"),
		pressedKeys: make(map[int64]bool),
	}
}

type keyEventParams struct {
	Key        string `json:"key"`
	Code       string `json:"code"`
	KeyCode    int64  `json:"keyCode"`
	Text       string `json:"text,omitempty"`
	Modifiers  int64  `json:"modifiers"`
	Location   int64  `json:"location,omitempty"`
	AutoRepeat bool   `json:"autoRepeat,omitempty"`
}

// Down sends a key down event and holds the key until Up.
func (k *Keyboard) Down(ctx context.Context, key string) error {
	params, err := k.keyDown(key)
	if err != nil {
		return err
	}
	_, err = k.obj.Call(ctx, "keyboardDown", params)
	return err
}

// Up sends a key up event, releasing a key held by Down.
func (k *Keyboard) Up(ctx context.Context, key string) error {
	params, err := k.keyUp(key)
	if err != nil {
		return err
	}
	_, err = k.obj.Call(ctx, "keyboardUp", params)
	return err
}

// Press sends a key down followed by a key up event.
func (k *Keyboard) Press(ctx context.Context, key string) error {
	if err := k.Down(ctx, key); err != nil {
		return err
	}
	return k.Up(ctx, key)
}

// InsertText inserts text without dispatching per-key events.
func (k *Keyboard) InsertText(ctx context.Context, text string) error {
	params := struct {
		Text string `json:"text"`
	}{text}
	_, err := k.obj.Call(ctx, "keyboardInsertText", params)
	return err
}

// Type presses each character of text that the layout knows, and inserts
// the rest as literal text.
func (k *Keyboard) Type(ctx context.Context, text string) error {
	for _, c := range text {
		if k.isValidKey(keyboard.Key(c)) {
			if err := k.Press(ctx, string(c)); err != nil {
				return errors.Wrapf(err, "typing %q", c)
			}
			continue
		}
		if err := k.InsertText(ctx, string(c)); err != nil {
			return errors.Wrapf(err, "inserting %q", c)
		}
	}
	return nil
}

func (k *Keyboard) isValidKey(key keyboard.Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.layout.IsValidKey(key)
}

func (k *Keyboard) keyDown(key string) (keyEventParams, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	keyInput := keyboard.Key(key)
	if !k.layout.IsValidKey(keyInput) {
		return keyEventParams{}, errors.Errorf("%q is not a valid key for layout %q", key, k.layout.Name)
	}

	keyDef := k.layout.ModifiedKeyDefinition(keyInput, k.modifiers)
	k.modifiers |= k.layout.ModifierBitFromKey(keyDef.Key)
	_, autoRepeat := k.pressedKeys[keyDef.KeyCode]
	k.pressedKeys[keyDef.KeyCode] = true

	return keyEventParams{
		Key:        keyDef.Key,
		Code:       keyDef.Code,
		KeyCode:    keyDef.KeyCode,
		Text:       keyDef.Text,
		Modifiers:  int64(k.modifiers),
		Location:   keyDef.Location,
		AutoRepeat: autoRepeat,
	}, nil
}

func (k *Keyboard) keyUp(key string) (keyEventParams, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	keyInput := keyboard.Key(key)
	if !k.layout.IsValidKey(keyInput) {
		return keyEventParams{}, errors.Errorf("%q is not a valid key for layout %q", key, k.layout.Name)
	}

	keyDef := k.layout.ModifiedKeyDefinition(keyInput, k.modifiers)
	k.modifiers &= ^k.layout.ModifierBitFromKey(keyDef.Key)
	delete(k.pressedKeys, keyDef.KeyCode)

	return keyEventParams{
		Key:       keyDef.Key,
		Code:      keyDef.Code,
		KeyCode:   keyDef.KeyCode,
		Modifiers: int64(k.modifiers),
		Location:  keyDef.Location,
	}, nil
}
