package keyboard

//nolint:gochecknoinits
func init() {
	keys := map[Key]Definition{
		"Backspace":      {Code: "Backspace", Key: "Backspace", KeyCode: 8},
		"Tab":            {Code: "Tab", Key: "Tab", KeyCode: 9},
		"Enter":          {Code: "Enter", Key: "Enter", KeyCode: 13, Text: "\r"},
		"ShiftLeft":      {Code: "ShiftLeft", Key: "Shift", KeyCode: 16, Location: 1},
		"ShiftRight":     {Code: "ShiftRight", Key: "Shift", KeyCode: 16, Location: 2},
		"ControlLeft":    {Code: "ControlLeft", Key: "Control", KeyCode: 17, Location: 1},
		"ControlRight":   {Code: "ControlRight", Key: "Control", KeyCode: 17, Location: 2},
		"AltLeft":        {Code: "AltLeft", Key: "Alt", KeyCode: 18, Location: 1},
		"AltRight":       {Code: "AltRight", Key: "Alt", KeyCode: 18, Location: 2},
		"MetaLeft":       {Code: "MetaLeft", Key: "Meta", KeyCode: 91, Location: 1},
		"MetaRight":      {Code: "MetaRight", Key: "Meta", KeyCode: 92, Location: 2},
		"Pause":          {Code: "Pause", Key: "Pause", KeyCode: 19},
		"CapsLock":       {Code: "CapsLock", Key: "CapsLock", KeyCode: 20},
		"Escape":         {Code: "Escape", Key: "Escape", KeyCode: 27},
		"Space":          {Code: "Space", Key: " ", KeyCode: 32},
		"PageUp":         {Code: "PageUp", Key: "PageUp", KeyCode: 33},
		"PageDown":       {Code: "PageDown", Key: "PageDown", KeyCode: 34},
		"End":            {Code: "End", Key: "End", KeyCode: 35},
		"Home":           {Code: "Home", Key: "Home", KeyCode: 36},
		"ArrowLeft":      {Code: "ArrowLeft", Key: "ArrowLeft", KeyCode: 37},
		"ArrowUp":        {Code: "ArrowUp", Key: "ArrowUp", KeyCode: 38},
		"ArrowRight":     {Code: "ArrowRight", Key: "ArrowRight", KeyCode: 39},
		"ArrowDown":      {Code: "ArrowDown", Key: "ArrowDown", KeyCode: 40},
		"Insert":         {Code: "Insert", Key: "Insert", KeyCode: 45},
		"Delete":         {Code: "Delete", Key: "Delete", KeyCode: 46},
		"Backquote":      {Code: "Backquote", Key: "`", KeyCode: 192, ShiftKey: "~"},
		"Minus":          {Code: "Minus", Key: "-", KeyCode: 189, ShiftKey: "_"},
		"Equal":          {Code: "Equal", Key: "=", KeyCode: 187, ShiftKey: "+"},
		"BracketLeft":    {Code: "BracketLeft", Key: "[", KeyCode: 219, ShiftKey: "{"},
		"BracketRight":   {Code: "BracketRight", Key: "]", KeyCode: 221, ShiftKey: "}"},
		"Backslash":      {Code: "Backslash", Key: "\\", KeyCode: 220, ShiftKey: "|"},
		"Semicolon":      {Code: "Semicolon", Key: ";", KeyCode: 186, ShiftKey: ":"},
		"Quote":          {Code: "Quote", Key: "'", KeyCode: 222, ShiftKey: "\""},
		"Comma":          {Code: "Comma", Key: ",", KeyCode: 188, ShiftKey: "<"},
		"Period":         {Code: "Period", Key: ".", KeyCode: 190, ShiftKey: ">"},
		"Slash":          {Code: "Slash", Key: "/", KeyCode: 191, ShiftKey: "?"},
		"NumpadEnter":    {Code: "NumpadEnter", Key: "Enter", KeyCode: 13, Text: "\r", Location: 3},
		"NumpadAdd":      {Code: "NumpadAdd", Key: "+", KeyCode: 107, Location: 3},
		"NumpadSubtract": {Code: "NumpadSubtract", Key: "-", KeyCode: 109, Location: 3},
		"F1":             {Code: "F1", Key: "F1", KeyCode: 112},
		"F2":             {Code: "F2", Key: "F2", KeyCode: 113},
		"F3":             {Code: "F3", Key: "F3", KeyCode: 114},
		"F4":             {Code: "F4", Key: "F4", KeyCode: 115},
		"F5":             {Code: "F5", Key: "F5", KeyCode: 116},
		"F6":             {Code: "F6", Key: "F6", KeyCode: 117},
		"F7":             {Code: "F7", Key: "F7", KeyCode: 118},
		"F8":             {Code: "F8", Key: "F8", KeyCode: 119},
		"F9":             {Code: "F9", Key: "F9", KeyCode: 120},
		"F10":            {Code: "F10", Key: "F10", KeyCode: 121},
		"F11":            {Code: "F11", Key: "F11", KeyCode: 122},
		"F12":            {Code: "F12", Key: "F12", KeyCode: 123},
	}

	shiftDigits := []string{")", "!", "@", "#", "$", "%", "^", "&", "*", "("}
	for i := 0; i <= 9; i++ {
		code := Key("Digit" + string(rune('0'+i)))
		keys[code] = Definition{
			Code:     string(code),
			Key:      string(rune('0' + i)),
			KeyCode:  int64('0' + i),
			ShiftKey: shiftDigits[i],
		}
	}
	for c := 'a'; c <= 'z'; c++ {
		upper := c - 'a' + 'A'
		code := Key("Key" + string(upper))
		keys[code] = Definition{
			Code:     string(code),
			Key:      string(c),
			KeyCode:  int64(upper),
			ShiftKey: string(upper),
		}
	}

	register("us", keys)
}
