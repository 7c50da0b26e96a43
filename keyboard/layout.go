package keyboard

// ModifierKey is a key modifier like ALT, CTRL, or Shift.
type ModifierKey int64

const (
	// ModifierKeyAlt is the ALT key modifier.
	ModifierKeyAlt ModifierKey = 1 << iota
	// ModifierKeyControl is the CTRL key modifier.
	ModifierKeyControl
	// ModifierKeyMeta is the meta key modifier.
	ModifierKeyMeta
	// ModifierKeyShift is the Shift key modifier.
	ModifierKeyShift
)

// Key is a keyboard key name, either a code ("KeyA") or a key value ("a").
type Key string

// Definition describes how one physical key reports itself.
type Definition struct {
	Code         string
	Key          string
	KeyCode      int64
	ShiftKey     string
	ShiftKeyCode int64
	Text         string
	Location     int64
}

// Layout maps key names to definitions for one keyboard language.
type Layout struct {
	Name string

	keys    map[Key]Definition // indexed by code
	byKey   map[string]Definition
	byShift map[string]Definition
}

func newLayout(name string, keys map[Key]Definition) Layout {
	l := Layout{
		Name:    name,
		keys:    keys,
		byKey:   make(map[string]Definition, len(keys)),
		byShift: make(map[string]Definition),
	}
	for _, d := range keys {
		l.byKey[d.Key] = d
		if d.ShiftKey != "" {
			l.byShift[d.ShiftKey] = d
		}
	}
	return l
}

// IsValidKey returns true if key names a code, key value or shifted key
// value known to the layout.
func (l *Layout) IsValidKey(key Key) bool {
	if _, ok := l.keys[key]; ok {
		return true
	}
	if _, ok := l.byKey[string(key)]; ok {
		return true
	}
	_, ok := l.byShift[string(key)]
	return ok
}

// ModifiedKeyDefinition resolves key under the given modifiers. Asking for
// a shifted key value ("A") implies the shift modifier even when m does
// not carry it.
func (l *Layout) ModifiedKeyDefinition(key Key, m ModifierKey) Definition {
	shift := m&ModifierKeyShift != 0

	src, ok := l.keys[key]
	if !ok {
		src, ok = l.byKey[string(key)]
	}
	if !ok {
		src = l.byShift[string(key)]
		shift = true
	}

	d := Definition{
		Code:     src.Code,
		Key:      src.Key,
		KeyCode:  src.KeyCode,
		Text:     src.Text,
		Location: src.Location,
	}
	if d.Text == "" {
		d.Text = src.Key
	}
	if shift && src.ShiftKey != "" {
		d.Key = src.ShiftKey
		d.Text = src.ShiftKey
		if src.ShiftKeyCode != 0 {
			d.KeyCode = src.ShiftKeyCode
		}
	}
	// Keys that produce no character keep an empty text.
	if len(d.Text) > 1 {
		d.Text = ""
	}
	// Any modifier besides shift suppresses the text.
	if m & ^ModifierKeyShift != 0 {
		d.Text = ""
	}

	return d
}

// ModifierBitFromKey returns the modifier bit for a modifier key value,
// or zero for a regular key.
func (l *Layout) ModifierBitFromKey(key string) ModifierKey {
	switch key {
	case "Alt":
		return ModifierKeyAlt
	case "Control":
		return ModifierKeyControl
	case "Meta":
		return ModifierKeyMeta
	case "Shift":
		return ModifierKeyShift
	}
	return 0
}
