package tracking

// PointerSample is a screen position in whatever coordinate space the OS
// hook reports. No unit conversion is applied.
type PointerSample struct {
	X float64
	Y float64
}

// Kind classifies an input event.
type Kind uint8

const (
	KindOther Kind = iota
	KindMove
	KindButtonPress
	KindButtonRelease
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindButtonPress:
		return "press"
	case KindButtonRelease:
		return "release"
	default:
		return "other"
	}
}

// Button identifies a mouse button on press/release events.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonOther
)

// Event is one input event as delivered by an EventSource. X and Y are only
// meaningful for KindMove.
type Event struct {
	Kind   Kind
	Button Button
	X      float64
	Y      float64
}

func Move(x, y float64) Event { return Event{Kind: KindMove, X: x, Y: y} }

func Press(b Button) Event { return Event{Kind: KindButtonPress, Button: b} }

func Release(b Button) Event { return Event{Kind: KindButtonRelease, Button: b} }
