package scancode

import "github.com/dshills/keyburst/internal/input/key"

func plain(name string, scan uint16) Entry {
	return Entry{Name: key.Symbol(name), Code: Code{Scan: scan}}
}

func ext(name string, scan uint16) Entry {
	return Entry{Name: key.Symbol(name), Code: Code{Scan: scan, Extended: true}}
}

var usLayout = []Entry{
	plain("escape", 0x01),
	plain("1", 0x02), plain("2", 0x03), plain("3", 0x04), plain("4", 0x05),
	plain("5", 0x06), plain("6", 0x07), plain("7", 0x08), plain("8", 0x09),
	plain("9", 0x0A), plain("0", 0x0B),
	plain("-", 0x0C), plain("=", 0x0D),
	plain("backspace", 0x0E), plain("tab", 0x0F),
	plain("q", 0x10), plain("w", 0x11), plain("e", 0x12), plain("r", 0x13),
	plain("t", 0x14), plain("y", 0x15), plain("u", 0x16), plain("i", 0x17),
	plain("o", 0x18), plain("p", 0x19),
	plain("[", 0x1A), plain("]", 0x1B),
	plain("enter", 0x1C), plain("ctrl", 0x1D),
	plain("a", 0x1E), plain("s", 0x1F), plain("d", 0x20), plain("f", 0x21),
	plain("g", 0x22), plain("h", 0x23), plain("j", 0x24), plain("k", 0x25),
	plain("l", 0x26),
	plain(";", 0x27), plain("'", 0x28), plain("`", 0x29),
	plain("shift", 0x2A), plain(`\`, 0x2B),
	plain("z", 0x2C), plain("x", 0x2D), plain("c", 0x2E), plain("v", 0x2F),
	plain("b", 0x30), plain("n", 0x31), plain("m", 0x32),
	plain(",", 0x33), plain(".", 0x34), plain("/", 0x35),
	plain("right shift", 0x36), plain("numpad *", 0x37),
	plain("alt", 0x38), plain("space", 0x39), plain("caps lock", 0x3A),
	plain("f1", 0x3B), plain("f2", 0x3C), plain("f3", 0x3D), plain("f4", 0x3E),
	plain("f5", 0x3F), plain("f6", 0x40), plain("f7", 0x41), plain("f8", 0x42),
	plain("f9", 0x43), plain("f10", 0x44),
	plain("num lock", 0x45), plain("scroll lock", 0x46),
	plain("numpad 7", 0x47), plain("numpad 8", 0x48), plain("numpad 9", 0x49),
	plain("numpad -", 0x4A),
	plain("numpad 4", 0x4B), plain("numpad 5", 0x4C), plain("numpad 6", 0x4D),
	plain("numpad +", 0x4E),
	plain("numpad 1", 0x4F), plain("numpad 2", 0x50), plain("numpad 3", 0x51),
	plain("numpad 0", 0x52), plain("numpad .", 0x53),
	plain("f11", 0x57), plain("f12", 0x58),

	ext("numpad enter", 0x1C), ext("right ctrl", 0x1D),
	ext("numpad /", 0x35), ext("print screen", 0x37), ext("right alt", 0x38),
	ext("home", 0x47), ext("up", 0x48), ext("page up", 0x49),
	ext("left", 0x4B), ext("right", 0x4D),
	ext("end", 0x4F), ext("down", 0x50), ext("page down", 0x51),
	ext("insert", 0x52), ext("delete", 0x53),
	ext("left windows", 0x5B), ext("right windows", 0x5C), ext("apps", 0x5D),
}
