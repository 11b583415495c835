package key

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  Symbol
	}{
		{"a", "a"},
		{"A", "a"},
		{"  Enter ", "enter"},
		{"Return", "enter"},
		{"ESC", "escape"},
		{"page_up", "page up"},
		{"Page  Down", "page down"},
		{"Left Shift", "shift"},
		{"AltGr", "right alt"},
		{" ", "space"},
		{"", None},
		{"１", "1"},
		{"Ａ", "a"},
		{"F5", "f5"},
		{"!", "!"},
		{"_", "_"},
		{"numpad_7", "numpad 7"},
		{"keypad 7", "numpad 7"},
	}

	for _, tt := range tests {
		if got := Canonical(tt.input); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input  string
		keypad bool
		want   Symbol
	}{
		{"1", false, "1"},
		{"!", false, "1"},
		{"@", false, "2"},
		{")", false, "0"},
		{"~", false, "`"},
		{"_", false, "-"},
		{"{", false, "["},
		{"?", false, "/"},
		{"1", true, "numpad 1"},
		{"+", true, "numpad +"},
		{"+", false, "="},
		{"enter", true, "numpad enter"},
		{"enter", false, "enter"},
		{"end", true, "numpad 1"},
		{"end", false, "end"},
		{"numpad 3", true, "numpad 3"},
		{"Q", false, "q"},
		{"", true, None},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input, tt.keypad); got != tt.want {
			t.Errorf("Normalize(%q, %v) = %q, want %q", tt.input, tt.keypad, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, name := range []string{"!", "Page_Up", "numpad 5", "`", "Right Shift", "５"} {
		once := Normalize(name, false)
		twice := Normalize(once.String(), false)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", name, once, twice)
		}
	}
}

func TestUnshift(t *testing.T) {
	if got, ok := Unshift("%"); !ok || got != "5" {
		t.Errorf("Unshift(%%) = (%q, %v), want (5, true)", got, ok)
	}
	if got, ok := Unshift("a"); ok || got != "a" {
		t.Errorf("Unshift(a) = (%q, %v), want (a, false)", got, ok)
	}
}

func TestSymbol(t *testing.T) {
	if !Symbol("numpad 4").IsNumpad() {
		t.Error("expected numpad 4 to be a numpad symbol")
	}
	if Symbol("4").IsNumpad() {
		t.Error("expected 4 not to be a numpad symbol")
	}
	if !None.IsNone() {
		t.Error("expected None.IsNone()")
	}
}

func TestSet(t *testing.T) {
	s := NewSet("alt", "shift")
	s.Add("delete")
	if !s.Has("delete") {
		t.Error("expected delete in set")
	}

	chord := NewSet("alt", "shift", "delete")
	if !s.ContainsAll(chord) {
		t.Error("expected set to contain the chord")
	}

	s.Remove("shift")
	if s.ContainsAll(chord) {
		t.Error("expected chord to be incomplete after removal")
	}

	want := []Symbol{"alt", "delete"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestEvent_Symbol(t *testing.T) {
	ev := NewEvent("#")
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if got := ev.Symbol(); got != "3" {
		t.Errorf("Symbol() = %q, want 3", got)
	}

	ev = Event{Name: "7", Keypad: true}
	if got := ev.Symbol(); got != "numpad 7" {
		t.Errorf("Symbol() = %q, want numpad 7", got)
	}
}
