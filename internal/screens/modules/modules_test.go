package modules

import (
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/progress"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/store"
)

func testEngine(t *testing.T, cat *catalog.Catalog) *engine.Engine {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	durable := persist.New(nil, st.Slots())
	return engine.New(cat,
		progress.NewStore(durable),
		stats.NewService(durable, cat.Len()),
		durable,
	)
}

func seededCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Module{
		{Key: "phishing", Title: "Phishing Simulation", Questions: []catalog.Question{
			{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
		}},
		{Key: "password", Title: "Password Training", Questions: []catalog.Question{
			{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 1},
		}},
	})
}

func refreshed(t *testing.T, m *ModulesScreen) *ModulesScreen {
	t.Helper()
	msg := m.Init()()
	updated, _ := m.Update(msg)
	return updated.(*ModulesScreen)
}

func TestRefreshPopulatesState(t *testing.T) {
	m := New(testEngine(t, seededCatalog()))
	m = refreshed(t, m)

	if m.errMsg != "" {
		t.Fatalf("refresh failed: %s", m.errMsg)
	}
	if len(m.mods) != 2 {
		t.Errorf("mods = %d, want 2", len(m.mods))
	}
}

func TestEnterOpensModuleOverview(t *testing.T) {
	eng := testEngine(t, seededCatalog())
	m := refreshed(t, New(eng))

	updated, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = updated.(*ModulesScreen)
	if cmd == nil {
		t.Fatal("expected a selection command")
	}

	updated, cmd = m.Update(cmd())
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Errorf("expected PushScreenMsg, got %T", cmd())
	}
	m = updated.(*ModulesScreen)
	if m.state.Cursor.ModuleKey != "phishing" {
		t.Errorf("selected module = %q", m.state.Cursor.ModuleKey)
	}
}

func TestDegradedModeOffersRetry(t *testing.T) {
	m := refreshed(t, New(testEngine(t, catalog.Empty())))

	if !m.degraded() {
		t.Fatal("empty catalog should render degraded mode")
	}

	// Enter must not select anything.
	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("enter should be inert in degraded mode")
	}

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	if cmd == nil {
		t.Fatal("expected a retry command")
	}
	if _, ok := cmd().(RetryCatalogMsg); !ok {
		t.Errorf("expected RetryCatalogMsg, got %T", cmd())
	}
}

func TestRetryOnlyInDegradedMode(t *testing.T) {
	m := refreshed(t, New(testEngine(t, seededCatalog())))

	if _, cmd := m.Update(tea.KeyPressMsg{Code: 'r', Text: "r"}); cmd != nil {
		t.Error("retry key should be inert with a loaded catalog")
	}
}
