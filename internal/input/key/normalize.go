package key

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// shifted maps the character produced with Shift held back to the
// unshifted key on a US layout.
var shifted = map[Symbol]Symbol{
	"!": "1", "@": "2", "#": "3", "$": "4", "%": "5",
	"^": "6", "&": "7", "*": "8", "(": "9", ")": "0",
	"~": "`", "_": "-", "+": "=", "{": "[", "}": "]",
	"|": `\`, ":": ";", `"`: "'", "<": ",", ">": ".", "?": "/",
}

// keypad maps the names back-ends report for keypad keys onto the
// numpad-prefixed symbol. Navigation names cover keypads with Num Lock off.
var keypad = map[Symbol]Symbol{
	"0": "numpad 0", "1": "numpad 1", "2": "numpad 2", "3": "numpad 3",
	"4": "numpad 4", "5": "numpad 5", "6": "numpad 6", "7": "numpad 7",
	"8": "numpad 8", "9": "numpad 9",
	"+": "numpad +", "-": "numpad -", "*": "numpad *", "/": "numpad /",
	".": "numpad .", "enter": "numpad enter",
	"insert": "numpad 0", "end": "numpad 1", "down": "numpad 2",
	"page down": "numpad 3", "left": "numpad 4", "clear": "numpad 5",
	"right": "numpad 6", "home": "numpad 7", "up": "numpad 8",
	"page up": "numpad 9", "delete": "numpad .",
}

var aliases = map[string]Symbol{
	"esc":           "escape",
	"return":        "enter",
	"del":           "delete",
	"ins":           "insert",
	"bksp":          "backspace",
	"back":          "backspace",
	"pgup":          "page up",
	"pageup":        "page up",
	"prior":         "page up",
	"pgdn":          "page down",
	"pagedown":      "page down",
	"next":          "page down",
	"control":       "ctrl",
	"left ctrl":     "ctrl",
	"left control":  "ctrl",
	"lctrl":         "ctrl",
	"right control": "right ctrl",
	"rctrl":         "right ctrl",
	"left shift":    "shift",
	"lshift":        "shift",
	"rshift":        "right shift",
	"left alt":      "alt",
	"lalt":          "alt",
	"option":        "alt",
	"ralt":          "right alt",
	"alt gr":        "right alt",
	"altgr":         "right alt",
	"spacebar":      "space",
	"capslock":      "caps lock",
	"caps":          "caps lock",
	"numlock":       "num lock",
	"scrolllock":    "scroll lock",
	"printscreen":   "print screen",
	"prtsc":         "print screen",
	"print":         "print screen",
	"win":           "left windows",
	"windows":       "left windows",
	"left win":      "left windows",
	"super":         "left windows",
	"right win":     "right windows",
	"menu":          "apps",
	"context menu":  "apps",
	"backquote":     "`",
	"grave":         "`",
	"up arrow":      "up",
	"down arrow":    "down",
	"left arrow":    "left",
	"right arrow":   "right",
	"keypad 0":      "numpad 0",
	"keypad 1":      "numpad 1",
	"keypad 2":      "numpad 2",
	"keypad 3":      "numpad 3",
	"keypad 4":      "numpad 4",
	"keypad 5":      "numpad 5",
	"keypad 6":      "numpad 6",
	"keypad 7":      "numpad 7",
	"keypad 8":      "numpad 8",
	"keypad 9":      "numpad 9",
}

// Canonical folds a key name to its canonical spelling: surrounding space
// trimmed, full-width characters narrowed, case folded, separators collapsed
// to single spaces and aliases resolved. It does not undo Shift.
func Canonical(name string) Symbol {
	if name == " " {
		return "space"
	}
	s := strings.TrimSpace(name)
	if s == "" {
		return None
	}

	if isASCII(s) {
		s = strings.ToLower(s)
	} else {
		s = width.Fold.String(s)
		s = cases.Fold().String(s)
	}

	if utf8.RuneCountInString(s) > 1 {
		s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '_' || r == '\t'
		}), " ")
	}

	if alias, ok := aliases[s]; ok {
		return alias
	}
	return Symbol(s)
}

// Normalize maps a raw back-end key name to the symbol used for matching:
// Canonical, then keypad variants get the numpad prefix, then shifted
// punctuation is mapped back to its base key.
func Normalize(name string, isKeypad bool) Symbol {
	sym := Canonical(name)
	if sym == None {
		return None
	}

	if isKeypad && !sym.IsNumpad() {
		if kp, ok := keypad[sym]; ok {
			return kp
		}
	}

	if base, ok := shifted[sym]; ok {
		return base
	}
	return sym
}

// Unshift returns the unshifted key for shifted punctuation, and reports
// whether a mapping applied.
func Unshift(sym Symbol) (Symbol, bool) {
	base, ok := shifted[sym]
	if !ok {
		return sym, false
	}
	return base, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
