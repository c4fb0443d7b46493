package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cameroonytoons/AniFig/store"
)

func (h *handler) listAnimations(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		if errors.Is(err, store.ErrUninitialized) {
			http.Error(w, "animation store is not initialized", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "failed to list animations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (h *handler) searchAnimations(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Search(r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, store.ErrUninitialized) {
			http.Error(w, "animation store is not initialized", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "failed to search animations", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// initStore runs (or re-runs, after a terminal failure) store
// initialization. This is the manual-retry path behind the panel's
// blocking error state.
func (h *handler) initStore(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Init(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
