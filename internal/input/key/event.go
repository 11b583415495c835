package key

import "time"

// Event is a raw key transition as reported by a hook source, before
// normalisation.
type Event struct {
	// Name is the key name reported by the back-end.
	Name string

	// ScanCode is the hardware scan code, when known.
	ScanCode uint16

	// Extended reports the E0-prefixed (extended) variant of ScanCode.
	Extended bool

	// Keypad reports that the key sits on the numeric keypad.
	Keypad bool

	// Injected reports that the OS flagged the event as synthesised.
	Injected bool

	// Timestamp is when the hook observed the event.
	Timestamp time.Time
}

// NewEvent creates an event for name with the current timestamp.
func NewEvent(name string) Event {
	return Event{
		Name:      name,
		Timestamp: time.Now(),
	}
}

// Symbol returns the normalised symbol for the event.
func (e Event) Symbol() Symbol {
	return Normalize(e.Name, e.Keypad)
}
