package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoadSeed(t *testing.T) {
	c, err := Load(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Load seed: %v", err)
	}

	if c.Len() != 7 {
		t.Errorf("Len = %d, want 7", c.Len())
	}

	for _, m := range c.Modules() {
		if len(m.Questions) != 10 {
			t.Errorf("module %q has %d questions, want 10", m.Key, len(m.Questions))
		}
		if len(m.Points) == 0 {
			t.Errorf("module %q has no learning points", m.Key)
		}
	}

	phishing, ok := c.Module("phishing")
	if !ok {
		t.Fatal("phishing module missing")
	}
	if phishing.Title != "Phishing Simulation" {
		t.Errorf("phishing title = %q", phishing.Title)
	}
}

func TestLoadSeedOrderStable(t *testing.T) {
	c, err := Load(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Load seed: %v", err)
	}

	want := []string{"keymessage", "deepfake", "reporting", "culture", "social", "phishing", "password"}
	mods := c.Modules()
	if len(mods) != len(want) {
		t.Fatalf("got %d modules, want %d", len(mods), len(want))
	}
	for i, m := range mods {
		if m.Key != want[i] {
			t.Errorf("modules[%d] = %q, want %q", i, m.Key, want[i])
		}
	}
}

func validDoc() map[string]any {
	return map[string]any{
		"version": "1.0.0",
		"modules": []any{
			map[string]any{
				"key":   "m1",
				"title": "Module One",
				"questions": []any{
					map[string]any{
						"prompt":  "Q?",
						"options": []any{"a", "b"},
						"correct": 0,
					},
				},
			},
		},
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{"correct index out of range", func(doc map[string]any) {
			q := doc["modules"].([]any)[0].(map[string]any)["questions"].([]any)[0].(map[string]any)
			q["correct"] = 2
		}},
		{"single option", func(doc map[string]any) {
			q := doc["modules"].([]any)[0].(map[string]any)["questions"].([]any)[0].(map[string]any)
			q["options"] = []any{"only"}
		}},
		{"unsupported major version", func(doc map[string]any) {
			doc["version"] = "2.0.0"
		}},
		{"missing title", func(doc map[string]any) {
			delete(doc["modules"].([]any)[0].(map[string]any), "title")
		}},
		{"no modules", func(doc map[string]any) {
			doc["modules"] = []any{}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(doc)
			raw, err := json.Marshal(doc)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Parse(raw); err == nil {
				t.Error("Parse accepted invalid document")
			}
		})
	}
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	doc := validDoc()
	mods := doc["modules"].([]any)
	doc["modules"] = append(mods, mods[0])
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(raw); err == nil {
		t.Error("Parse accepted duplicate module keys")
	}
}

func TestLoadURLRetriesThenSucceeds(t *testing.T) {
	raw, err := json.Marshal(validDoc())
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	c, err := Load(context.Background(), Config{
		Source:      srv.URL,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestLoadURLExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), Config{
		Source:      srv.URL,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})

	var loadErr *ErrCatalogLoad
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *ErrCatalogLoad", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), Config{Source: "/nonexistent/catalog.json"})
	var loadErr *ErrCatalogLoad
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *ErrCatalogLoad", err)
	}
}

func TestEmptyCatalog(t *testing.T) {
	c := Empty()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if c.Has("phishing") {
		t.Error("empty catalog should not contain modules")
	}
	if got := c.Title("phishing"); got != "phishing" {
		t.Errorf("Title fallback = %q, want key itself", got)
	}
}
