// Package controller is the host-side handler of panel intents. It owns
// the authoritative preset dictionary, tags document nodes with the
// animation applied to them, discovers nodes sharing a tag, and propagates
// preset edits to every tagged node.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Cameroonytoons/AniFig/animation"
	"github.com/Cameroonytoons/AniFig/document"
	"github.com/Cameroonytoons/AniFig/storage"
)

var (
	ErrNotReady         = errors.New("plugin is still initializing")
	ErrExists           = errors.New("animation already exists")
	ErrUnknownAnimation = errors.New("animation not found")
	ErrEmptySelection   = errors.New("select at least one object")
)

// Group is a set of nodes sharing one animation tag. FindSimilar only
// returns groups with more than one member.
type Group struct {
	Name  string
	Nodes []*document.Node
}

// appliedParams is the per-node snapshot written alongside the tag at
// application time.
type appliedParams struct {
	Duration   float64                    `json:"duration"`
	Easing     string                     `json:"easing"`
	Properties map[string]animation.Range `json:"properties"`
}

// Controller services one intent at a time: the message channel delivers
// in order, and the mutex keeps selection-change reactions from
// interleaving with an in-flight handler.
type Controller struct {
	doc    *document.Document
	kv     storage.KV
	policy storage.Policy

	mu      sync.Mutex
	ready   bool
	initErr error
	presets map[string]animation.Preset
}

func New(doc *document.Document, kv storage.KV, policy storage.Policy) *Controller {
	c := &Controller{
		doc:     doc,
		kv:      kv,
		policy:  policy,
		presets: map[string]animation.Preset{},
	}
	doc.OnSelectionChange(c.handleSelectionChange)
	return c
}

// Init seeds the dictionary from the shared storage key. Until Init
// succeeds every operation fails with ErrNotReady; the terminal error of a
// failed seed is kept for the readiness handshake.
func (c *Controller) Init(ctx context.Context) error {
	var loaded map[string]animation.Preset
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		data, found, err := c.kv.Get(ctx, storage.KeyAnimations)
		if err != nil {
			return fmt.Errorf("read %q: %w", storage.KeyAnimations, err)
		}

		presets := map[string]animation.Preset{}
		if found {
			var raw map[string]animation.Preset
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("decode persisted animations: %w", err)
			}
			for name, p := range raw {
				if err := animation.ValidateName(name); err != nil {
					log.Printf("controller: dropping persisted animation %q: %v", name, err)
					continue
				}
				if err := animation.Validate(p); err != nil {
					log.Printf("controller: dropping persisted animation %q: %v", name, err)
					continue
				}
				presets[name] = p
			}
		}
		loaded = presets
		return nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.initErr = fmt.Errorf("initialize controller: %w", err)
		return c.initErr
	}
	c.presets = loaded
	c.ready = true
	c.initErr = nil
	return nil
}

// Ready reports whether the controller has been seeded.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// InitErr returns the terminal error of the last failed Init, if any.
func (c *Controller) InitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErr
}

// CreateAnimation stores a new preset and persists the dictionary. The
// name and preset are validated here even though the panel validates
// before sending: the controller is the authoritative writer and does not
// trust the other side of the channel.
func (c *Controller) CreateAnimation(ctx context.Context, name string, p animation.Preset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return ErrNotReady
	}
	if err := animation.ValidateName(name); err != nil {
		return err
	}
	if err := animation.Validate(p); err != nil {
		return err
	}
	if _, ok := c.presets[name]; ok {
		return ErrExists
	}

	c.presets[name] = p.Clone()
	return c.persistLocked(ctx)
}

// ApplyAnimation tags every animatable node in the current selection with
// name and applies the preset's parameters to it. It returns how many
// nodes were affected; a selection with no animatable nodes yields zero
// without error.
func (c *Controller) ApplyAnimation(ctx context.Context, name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return 0, ErrNotReady
	}

	selection := c.doc.Selection()
	if len(selection) == 0 {
		return 0, ErrEmptySelection
	}
	p, ok := c.presets[name]
	if !ok {
		return 0, ErrUnknownAnimation
	}

	count := 0
	for _, n := range selection {
		if !n.Animatable() {
			continue
		}
		c.applyToNode(n, name, p)
		count++
	}
	return count, nil
}

// FindSimilar groups all tagged nodes by animation name and returns every
// group with more than one member, sorted by name. Tags referencing a name
// no longer in the dictionary still group — the tag, not dictionary
// membership, is the join key — but are logged as dangling.
func (c *Controller) FindSimilar() ([]Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, ErrNotReady
	}

	tagged := c.doc.FindAll(func(n *document.Node) bool {
		return n.PluginData(document.KeyAnimationName) != ""
	})

	byName := map[string][]*document.Node{}
	for _, n := range tagged {
		name := n.PluginData(document.KeyAnimationName)
		byName[name] = append(byName[name], n)
	}

	groups := []Group{}
	for name, nodes := range byName {
		if len(nodes) < 2 {
			continue
		}
		if _, known := c.presets[name]; !known {
			log.Printf("controller: %d objects tagged %q but no such animation exists", len(nodes), name)
		}
		groups = append(groups, Group{Name: name, Nodes: nodes})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// ModifyShared overwrites the dictionary entry for name, persists, and
// re-applies the updated preset to every node tagged with name. It returns
// how many nodes were re-applied.
func (c *Controller) ModifyShared(ctx context.Context, name string, p animation.Preset) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return 0, ErrNotReady
	}
	if err := animation.Validate(p); err != nil {
		return 0, err
	}
	if _, ok := c.presets[name]; !ok {
		return 0, ErrUnknownAnimation
	}

	c.presets[name] = p.Clone()
	if err := c.persistLocked(ctx); err != nil {
		return 0, err
	}

	tagged := c.doc.FindAll(func(n *document.Node) bool {
		return n.PluginData(document.KeyAnimationName) == name
	})
	for _, n := range tagged {
		c.applyToNode(n, name, p)
	}
	return len(tagged), nil
}

// applyToNode writes the tag and parameter snapshot onto the node, resets
// each supported declared property to its from value, and plants one
// marker per applied property. Pre-existing markers for the node are
// removed first, so re-applying is idempotent. Must be called with c.mu
// held.
func (c *Controller) applyToNode(n *document.Node, name string, p animation.Preset) {
	params, err := json.Marshal(appliedParams{
		Duration:   p.Duration,
		Easing:     p.Easing,
		Properties: p.Properties,
	})
	if err != nil {
		log.Printf("controller: encode params for %q: %v", name, err)
		return
	}
	n.SetPluginData(document.KeyAnimationName, name)
	n.SetPluginData(document.KeyAnimationParams, string(params))

	c.doc.RemoveMarkersFor(n.ID)
	for property, r := range p.Properties {
		if !n.Supports(property) {
			continue
		}
		n.SetValue(property, r.From)
		c.doc.AddMarker(document.Marker{
			OwnerID:  n.ID,
			Property: property,
			From:     r.From,
			To:       r.To,
			Duration: p.Duration,
			Easing:   p.Easing,
		})
	}
}

// handleSelectionChange re-applies the animation of every newly selected
// node whose tag names a known preset, so a node's visual state catches up
// with preset edits made since it was last applied. Dangling tags are left
// alone.
func (c *Controller) handleSelectionChange(selection []*document.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return
	}

	for _, n := range selection {
		name := n.PluginData(document.KeyAnimationName)
		if name == "" {
			continue
		}
		p, ok := c.presets[name]
		if !ok {
			continue
		}
		c.applyToNode(n, name, p)
	}
}

// persistLocked writes the dictionary, retrying per policy. Like the
// panel-side store, a terminal failure leaves memory ahead of storage.
// Must be called with c.mu held.
func (c *Controller) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(c.presets)
	if err != nil {
		return fmt.Errorf("encode animations: %w", err)
	}

	err = c.policy.Do(ctx, func(ctx context.Context) error {
		return c.kv.Set(ctx, storage.KeyAnimations, data)
	})
	if err != nil {
		log.Printf("controller: persist failed, in-memory state is ahead of storage: %v", err)
		return fmt.Errorf("persist animations: %w", err)
	}
	return nil
}
