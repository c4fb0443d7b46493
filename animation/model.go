package animation

// Type identifies the kind of motion a preset describes.
type Type string

const (
	TypeFade   Type = "fade"
	TypeSlide  Type = "slide"
	TypeScale  Type = "scale"
	TypeRotate Type = "rotate"
)

// Animatable property keys.
const (
	PropOpacity  = "opacity"
	PropX        = "x"
	PropY        = "y"
	PropRotation = "rotation"
	PropScale    = "scale"
)

// MaxDuration is the longest allowed animation in milliseconds.
const MaxDuration = 10000

// Easings lists the easing curves the panel offers. The validator only
// requires a non-empty easing string; this set is for the UI.
var Easings = []string{"ease", "linear", "ease-in", "ease-out", "ease-in-out"}

// Range is a from/to pair for one animated property.
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Preset is a named, reusable animation definition. Presets are keyed by
// name in the store and in the host controller's dictionary.
type Preset struct {
	Type        Type             `json:"type"`
	Duration    float64          `json:"duration"` // milliseconds
	Easing      string           `json:"easing"`
	Properties  map[string]Range `json:"properties"`
	Description string           `json:"description,omitempty"`
	Group       string           `json:"group,omitempty"`
}

// Clone returns a deep copy (safe to hand out without aliasing Properties).
func (p Preset) Clone() Preset {
	cp := p
	if p.Properties != nil {
		cp.Properties = make(map[string]Range, len(p.Properties))
		for k, v := range p.Properties {
			cp.Properties[k] = v
		}
	}
	return cp
}
