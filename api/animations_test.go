package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cameroonytoons/AniFig/animation"
	"github.com/Cameroonytoons/AniFig/api"
	"github.com/Cameroonytoons/AniFig/controller"
	"github.com/Cameroonytoons/AniFig/document"
	"github.com/Cameroonytoons/AniFig/storage"
	"github.com/Cameroonytoons/AniFig/store"
)

type fixture struct {
	srv  *httptest.Server
	mem  *storage.Memory
	doc  *document.Document
	st   *store.Store
	ctrl *controller.Controller
}

func testPolicy() storage.Policy {
	return storage.Policy{MaxAttempts: 3, Delay: 0, Timeout: time.Second}
}

func fadeIn() animation.Preset {
	return animation.Preset{
		Type:     animation.TypeFade,
		Duration: 300,
		Easing:   "ease",
		Properties: map[string]animation.Range{
			animation.PropOpacity: {From: 0, To: 1},
		},
	}
}

// newFixture builds a fully initialized server over in-memory storage.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemory()
	st := store.New(mem, testPolicy())
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("store Init: %v", err)
	}
	doc := document.New()
	ctrl := controller.New(doc, mem, testPolicy())
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("controller Init: %v", err)
	}

	f := &fixture{mem: mem, doc: doc, st: st, ctrl: ctrl}
	f.srv = httptest.NewServer(api.RegisterRoutes(st, ctrl))
	t.Cleanup(f.srv.Close)
	return f
}

func TestListAnimationsEmpty(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/animations")
	if err != nil {
		t.Fatalf("GET /api/animations: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected json content-type, got %q", ct)
	}
	var entries []store.Entry
	json.NewDecoder(resp.Body).Decode(&entries)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func TestListAnimationsAfterSet(t *testing.T) {
	f := newFixture(t)
	if err := f.st.Set(context.Background(), "fadeIn", fadeIn()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	resp, err := http.Get(f.srv.URL + "/api/animations")
	if err != nil {
		t.Fatalf("GET /api/animations: %v", err)
	}
	defer resp.Body.Close()

	var entries []store.Entry
	json.NewDecoder(resp.Body).Decode(&entries)
	if len(entries) != 1 || entries[0].Name != "fadeIn" {
		t.Fatalf("expected fadeIn entry, got %+v", entries)
	}
	if entries[0].Preset.Type != animation.TypeFade {
		t.Fatalf("unexpected preset: %+v", entries[0].Preset)
	}
}

func TestListUninitialized503(t *testing.T) {
	mem := storage.NewMemory()
	st := store.New(mem, testPolicy()) // never initialized
	ctrl := controller.New(document.New(), mem, testPolicy())
	srv := httptest.NewServer(api.RegisterRoutes(st, ctrl))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/animations")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestSearchEmptyQueryReturnsEmptyArray(t *testing.T) {
	f := newFixture(t)
	if err := f.st.Set(context.Background(), "fadeIn", fadeIn()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	resp, err := http.Get(f.srv.URL + "/api/animations/search?q=")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []store.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("empty query must match nothing, got %d entries", len(entries))
	}
}

func TestSearchMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	described := fadeIn()
	described.Description = "soft entrance"
	if err := f.st.Set(ctx, "fadeIn", described); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := f.st.Set(ctx, "spin", animation.Preset{
		Type:     animation.TypeRotate,
		Duration: 400,
		Easing:   "linear",
		Properties: map[string]animation.Range{
			animation.PropRotation: {From: 0, To: 360},
		},
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	resp, err := http.Get(f.srv.URL + "/api/animations/search?q=entrance")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []store.Entry
	json.NewDecoder(resp.Body).Decode(&entries)
	if len(entries) != 1 || entries[0].Name != "fadeIn" {
		t.Fatalf("expected fadeIn only, got %+v", entries)
	}
}

func TestInitEndpointManualRetry(t *testing.T) {
	mem := storage.NewMemory()
	mem.FailGets = 6 // first server-side cycle (3) plus first manual retry (3)
	st := store.New(mem, testPolicy())
	_ = st.Init(context.Background()) // terminal failure, as on a bad startup
	ctrl := controller.New(document.New(), mem, testPolicy())
	srv := httptest.NewServer(api.RegisterRoutes(st, ctrl))
	defer srv.Close()

	// First manual retry still fails: 503 with an error body.
	resp, err := http.Post(srv.URL+"/api/animations/init", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body["error"] == "" {
		t.Fatal("expected error body")
	}

	// Second manual retry succeeds and unblocks the store.
	resp, err = http.Post(srv.URL+"/api/animations/init", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/api/animations")
	if err != nil {
		t.Fatal(err)
	}
	listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after successful init, got %d", listResp.StatusCode)
	}
}
