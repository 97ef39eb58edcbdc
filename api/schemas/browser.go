package schemas

// -- Browser Interaction Schemas --

// ElementGeometry defines the bounding box and vertices of a DOM element.
type ElementGeometry struct {
	Vertices []float64 `json:"vertices"`
	Width    int64     `json:"width"`
	Height   int64     `json:"height"`
	// TagName (e.g., "INPUT", "DIV") of the resolved element.
	TagName string `json:"tagName"`
	// Type (e.g., 'text', 'radio') of the resolved element, when it has one.
	Type string `json:"type,omitempty"`
}

// Center returns the geometric center of the element quad.
func (g *ElementGeometry) Center() (x, y float64, ok bool) {
	if g == nil || len(g.Vertices) < 8 {
		return 0, 0, false
	}
	x = (g.Vertices[0] + g.Vertices[2] + g.Vertices[4] + g.Vertices[6]) / 4
	y = (g.Vertices[1] + g.Vertices[3] + g.Vertices[5] + g.Vertices[7]) / 4
	return x, y, true
}

// MouseEventType defines the type of a mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
)

// MouseButton defines the mouse button being pressed.
type MouseButton string

const (
	ButtonNone  MouseButton = "none"
	ButtonLeft  MouseButton = "left"
	ButtonRight MouseButton = "right"
)

// MouseEventData encapsulates all data for a mouse event.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	Buttons    int64          `json:"buttons"`
	ClickCount int            `json:"clickCount"`
}

// KeyEventData represents a structured key event, including the main key and active modifiers.
type KeyEventData struct {
	// Key is the primary key pressed (e.g., "a", "Enter", "Backspace", "Escape").
	Key string
	// Modifiers is a bitmask of active modifiers.
	Modifiers KeyModifier
}

// KeyModifier represents keyboard modifiers (Ctrl, Alt, Shift, Meta).
// These values correspond directly to the CDP input.DispatchKeyEvent modifiers bitfield.
type KeyModifier int

const (
	ModNone  KeyModifier = 0
	ModAlt   KeyModifier = 1
	ModCtrl  KeyModifier = 2
	ModMeta  KeyModifier = 4
	ModShift KeyModifier = 8
)

// ElementState is the live state of a single element as read back from the page.
type ElementState struct {
	Found        bool              `json:"found"`
	TagName      string            `json:"tagName"`
	Value        string            `json:"value"`
	Checked      bool              `json:"checked"`
	Selected     bool              `json:"selected"`
	Text         string            `json:"text"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	ParentClass  string            `json:"parentClass,omitempty"`
	SelectedText string            `json:"selectedText,omitempty"`
}

// Attr returns an attribute value or the empty string.
func (s ElementState) Attr(name string) string {
	if s.Attributes == nil {
		return ""
	}
	return s.Attributes[name]
}
