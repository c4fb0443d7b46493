// Package store holds the panel-side animation preset collection: a
// validated in-memory cache over the shared key-value storage, loaded once
// per session with bounded retry and persisted on every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/Cameroonytoons/AniFig/animation"
	"github.com/Cameroonytoons/AniFig/storage"
)

// MaxAnimations bounds the collection size.
const MaxAnimations = 1000

var (
	ErrUninitialized = errors.New("animation store is not initialized")
	ErrExists        = errors.New("animation already exists")
	ErrNotFound      = errors.New("animation does not exist")
	ErrCapacity      = errors.New("animation store is at capacity")
)

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
	stateFailed
)

// inflight is one initialization cycle. Every caller that joins while the
// cycle runs waits on done and observes the same err.
type inflight struct {
	done chan struct{}
	err  error
}

// Entry pairs a preset with its name for listing and search results.
type Entry struct {
	Name   string           `json:"name"`
	Preset animation.Preset `json:"preset"`
}

// Store is the panel-side preset collection. All methods are safe for
// concurrent use; every read/write except Init requires a prior successful
// Init and fails with ErrUninitialized otherwise.
type Store struct {
	kv     storage.KV
	policy storage.Policy

	mu         sync.Mutex
	st         state
	in         *inflight
	maxEntries int
	presets    map[string]animation.Preset
}

func New(kv storage.KV, policy storage.Policy) *Store {
	return &Store{
		kv:         kv,
		policy:     policy,
		maxEntries: MaxAnimations,
		presets:    map[string]animation.Preset{},
	}
}

// Init loads the persisted collection. Concurrent callers collapse onto a
// single load execution and all observe its outcome. A Ready store returns
// nil immediately. After a terminal failure the store stays failed — every
// other method keeps rejecting — until the user explicitly retries by
// calling Init again, which starts a fresh cycle.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	switch s.st {
	case stateReady:
		s.mu.Unlock()
		return nil
	case stateInitializing:
		in := s.in
		s.mu.Unlock()
		select {
		case <-in.done:
			return in.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Uninitialized or failed: start a new cycle.
	in := &inflight{done: make(chan struct{})}
	s.in = in
	s.st = stateInitializing
	s.mu.Unlock()

	loaded, err := s.load(ctx)

	s.mu.Lock()
	if err != nil {
		s.st = stateFailed
	} else {
		s.presets = loaded
		s.st = stateReady
	}
	in.err = err
	close(in.done)
	s.in = nil
	s.mu.Unlock()
	return err
}

// load fetches and decodes the persisted mapping, dropping entries that no
// longer pass validation. Each attempt is bounded by the policy's timeout;
// failed attempts are retried with the policy's delay.
func (s *Store) load(ctx context.Context) (map[string]animation.Preset, error) {
	var loaded map[string]animation.Preset
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		data, found, err := s.kv.Get(ctx, storage.KeyAnimations)
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
					log.Printf("store: dropping persisted animation %q: %v", name, err)
					continue
				}
				if err := animation.Validate(p); err != nil {
					log.Printf("store: dropping persisted animation %q: %v", name, err)
					continue
				}
				presets[name] = p
			}
		}
		loaded = presets
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("initialize animation store: %w", err)
	}
	return loaded, nil
}

// readyLocked must be called with s.mu held.
func (s *Store) readyLocked() error {
	if s.st != stateReady {
		return ErrUninitialized
	}
	return nil
}

// Get returns the preset stored under name.
func (s *Store) Get(name string) (animation.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return animation.Preset{}, err
	}
	p, ok := s.presets[name]
	if !ok {
		return animation.Preset{}, ErrNotFound
	}
	return p.Clone(), nil
}

// Set inserts a new preset and persists the collection. It refuses invalid
// names, invalid presets, a full collection, and names already present —
// overwriting an existing entry goes through Update.
func (s *Store) Set(ctx context.Context, name string, p animation.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if err := animation.ValidateName(name); err != nil {
		return err
	}
	if len(s.presets) >= s.maxEntries {
		return ErrCapacity
	}
	if err := animation.Validate(p); err != nil {
		return err
	}
	if _, ok := s.presets[name]; ok {
		return ErrExists
	}

	s.presets[name] = p.Clone()
	return s.persistLocked(ctx)
}

// Update replaces the preset stored under an existing name. Replacement is
// whole-value: fields absent from p are gone after the update.
func (s *Store) Update(ctx context.Context, name string, p animation.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if err := animation.Validate(p); err != nil {
		return err
	}
	if _, ok := s.presets[name]; !ok {
		return ErrNotFound
	}

	s.presets[name] = p.Clone()
	return s.persistLocked(ctx)
}

// Delete removes the preset stored under name and persists the collection.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if _, ok := s.presets[name]; !ok {
		return ErrNotFound
	}

	delete(s.presets, name)
	return s.persistLocked(ctx)
}

// Search returns entries whose name, description, or group contains query,
// case-insensitively, sorted by name. An empty or whitespace query matches
// nothing rather than everything.
func (s *Store) Search(query string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Entry{}, nil
	}

	results := []Entry{}
	for name, p := range s.presets {
		if strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Group), q) {
			results = append(results, Entry{Name: name, Preset: p.Clone()})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

// List returns every entry sorted by name.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(s.presets))
	for name, p := range s.presets {
		entries = append(entries, Entry{Name: name, Preset: p.Clone()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Count returns the number of stored presets.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return 0, err
	}
	return len(s.presets), nil
}

// persistLocked writes the full collection, retrying per policy. On
// terminal failure the in-memory mutation that triggered the write is kept,
// so memory runs ahead of disk until the next successful persist; the
// failure is returned to the mutating caller and logged. Must be called
// with s.mu held.
func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.presets)
	if err != nil {
		return fmt.Errorf("encode animations: %w", err)
	}

	err = s.policy.Do(ctx, func(ctx context.Context) error {
		return s.kv.Set(ctx, storage.KeyAnimations, data)
	})
	if err != nil {
		log.Printf("store: persist failed, in-memory state is ahead of storage: %v", err)
		return fmt.Errorf("persist animations: %w", err)
	}
	return nil
}
