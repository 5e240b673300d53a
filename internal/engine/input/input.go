// Package input buffers window events in a backend-neutral form. Window
// backends translate their native events into it once per frame.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
)

// Key is a backend-neutral key code.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyF12
	KeySpace
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyEscape:
		return "Escape"
	case KeyF12:
		return "F12"
	case KeySpace:
		return "Space"
	default:
		return "Unknown"
	}
}

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
}

// Input collects the events of one frame.
type Input struct {
	events []Event
}

// New creates a new input buffer.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Reset drops the previous frame's events.
func (i *Input) Reset() {
	i.events = i.events[:0]
}

// Push appends an event. Unknown keys are dropped.
func (i *Input) Push(e Event) {
	if (e.Type == EventKeyDown || e.Type == EventKeyUp) && e.Key == KeyUnknown {
		return
	}
	i.events = append(i.events, e)
}

// Events returns the events pushed since the last Reset.
func (i *Input) Events() []Event {
	return i.events
}

// KeyPressed reports whether key went down this frame.
func (i *Input) KeyPressed(key Key) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}

// QuitRequested reports whether the window was asked to close this frame.
func (i *Input) QuitRequested() bool {
	for _, e := range i.events {
		if e.Type == EventQuit {
			return true
		}
	}
	return false
}

// Resized returns the most recent resize of this frame, if any.
func (i *Input) Resized() (width, height int, ok bool) {
	for j := len(i.events) - 1; j >= 0; j-- {
		if e := i.events[j]; e.Type == EventWindowResize {
			return e.Width, e.Height, true
		}
	}
	return 0, 0, false
}
