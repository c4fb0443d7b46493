// Package document is an in-memory model of the host document: objects
// with per-property capabilities, opaque plugin-data tags, a current
// selection, and the lightweight marker objects the controller plants next
// to animated nodes.
package document

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Cameroonytoons/AniFig/animation"
)

// Plugin-data keys the controller writes on tagged nodes.
const (
	KeyAnimationName   = "animationName"
	KeyAnimationParams = "animationParams"
)

// markerOffset is how far from its owner a marker is placed.
const markerOffset = 8.0

// Node is one document object. A capability pointer is nil when the node
// does not expose that property.
type Node struct {
	ID   string
	Name string

	Opacity  *float64
	X        *float64
	Y        *float64
	Rotation *float64
	Scale    *float64

	mu         sync.Mutex
	pluginData map[string]string
}

func NewNode(name string) *Node {
	return &Node{
		ID:         uuid.New().String(),
		Name:       name,
		pluginData: map[string]string{},
	}
}

func (n *Node) WithOpacity(v float64) *Node {
	n.Opacity = &v
	return n
}

func (n *Node) WithPosition(x, y float64) *Node {
	n.X = &x
	n.Y = &y
	return n
}

func (n *Node) WithRotation(v float64) *Node {
	n.Rotation = &v
	return n
}

func (n *Node) WithScale(v float64) *Node {
	n.Scale = &v
	return n
}

// Supports reports whether the node exposes the named animatable property.
func (n *Node) Supports(property string) bool {
	switch property {
	case animation.PropOpacity:
		return n.Opacity != nil
	case animation.PropX:
		return n.X != nil
	case animation.PropY:
		return n.Y != nil
	case animation.PropRotation:
		return n.Rotation != nil
	case animation.PropScale:
		return n.Scale != nil
	}
	return false
}

// Animatable reports whether the node exposes at least one of opacity,
// position, or rotation.
func (n *Node) Animatable() bool {
	return n.Opacity != nil || n.X != nil || n.Y != nil || n.Rotation != nil
}

// SetValue writes the node's live value for a property it supports.
// Unsupported properties are ignored.
func (n *Node) SetValue(property string, v float64) {
	switch property {
	case animation.PropOpacity:
		if n.Opacity != nil {
			*n.Opacity = v
		}
	case animation.PropX:
		if n.X != nil {
			*n.X = v
		}
	case animation.PropY:
		if n.Y != nil {
			*n.Y = v
		}
	case animation.PropRotation:
		if n.Rotation != nil {
			*n.Rotation = v
		}
	case animation.PropScale:
		if n.Scale != nil {
			*n.Scale = v
		}
	}
}

// Value reads the node's live value for a property, reporting whether the
// node supports it.
func (n *Node) Value(property string) (float64, bool) {
	switch property {
	case animation.PropOpacity:
		if n.Opacity != nil {
			return *n.Opacity, true
		}
	case animation.PropX:
		if n.X != nil {
			return *n.X, true
		}
	case animation.PropY:
		if n.Y != nil {
			return *n.Y, true
		}
	case animation.PropRotation:
		if n.Rotation != nil {
			return *n.Rotation, true
		}
	case animation.PropScale:
		if n.Scale != nil {
			return *n.Scale, true
		}
	}
	return 0, false
}

// PluginData reads an opaque tag; absent keys read as "".
func (n *Node) PluginData(key string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pluginData[key]
}

// SetPluginData writes an opaque tag; an empty value removes the key.
func (n *Node) SetPluginData(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if value == "" {
		delete(n.pluginData, key)
		return
	}
	n.pluginData[key] = value
}

// Marker is an auxiliary object the controller plants next to an animated
// node: one per animated property, recording what a downstream renderer
// needs to interpolate from → to.
type Marker struct {
	ID       string
	OwnerID  string
	Property string
	From     float64
	To       float64
	Duration float64
	Easing   string
	X        float64
	Y        float64
}

// Document holds all nodes, markers, and the current selection.
type Document struct {
	mu          sync.Mutex
	nodes       []*Node
	markers     []*Marker
	selection   []*Node
	onSelection []func([]*Node)
}

func New() *Document {
	return &Document{}
}

// Append adds nodes to the document.
func (d *Document) Append(nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, nodes...)
}

// FindAll returns every node matching pred, in document order.
func (d *Document) FindAll(pred func(*Node) bool) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	var matches []*Node
	for _, n := range d.nodes {
		if pred(n) {
			matches = append(matches, n)
		}
	}
	return matches
}

// Selection returns a copy of the current selection.
func (d *Document) Selection() []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel := make([]*Node, len(d.selection))
	copy(sel, d.selection)
	return sel
}

// SetSelection replaces the current selection and fires every registered
// listener. Listeners run after the document lock is released, so they may
// call back into the document.
func (d *Document) SetSelection(nodes ...*Node) {
	d.mu.Lock()
	d.selection = append([]*Node(nil), nodes...)
	listeners := make([]func([]*Node), len(d.onSelection))
	copy(listeners, d.onSelection)
	sel := make([]*Node, len(nodes))
	copy(sel, nodes)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(sel)
	}
}

// OnSelectionChange registers a listener invoked on every selection change.
func (d *Document) OnSelectionChange(fn func([]*Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSelection = append(d.onSelection, fn)
}

// AddMarker places a marker near its owner node and returns it. The marker
// gets a fresh ID; X/Y are taken from the owner's position when it has one.
func (d *Document) AddMarker(m Marker) *Marker {
	d.mu.Lock()
	defer d.mu.Unlock()

	m.ID = uuid.New().String()
	if owner := d.findLocked(m.OwnerID); owner != nil {
		if owner.X != nil {
			m.X = *owner.X + markerOffset
		}
		if owner.Y != nil {
			m.Y = *owner.Y + markerOffset
		}
	}
	marker := &m
	d.markers = append(d.markers, marker)
	return marker
}

// RemoveMarkersFor deletes every marker owned by ownerID.
func (d *Document) RemoveMarkersFor(ownerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.markers[:0]
	for _, m := range d.markers {
		if m.OwnerID != ownerID {
			kept = append(kept, m)
		}
	}
	d.markers = kept
}

// MarkersFor returns every marker owned by ownerID.
func (d *Document) MarkersFor(ownerID string) []*Marker {
	d.mu.Lock()
	defer d.mu.Unlock()

	var matches []*Marker
	for _, m := range d.markers {
		if m.OwnerID == ownerID {
			matches = append(matches, m)
		}
	}
	return matches
}

func (d *Document) findLocked(id string) *Node {
	for _, n := range d.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
