package storage

import (
	"path/filepath"
	"testing"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "roundtable.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAgents_ReplacesRoster(t *testing.T) {
	s := openTestStore(t)

	first := []session.Participant{
		{ID: "a1", Name: "Alice", Personality: "CFO", Voice: "Zephyr"},
		{ID: "a2", Name: "Bob", Personality: "CTO"},
	}
	if err := s.SaveAgents(first); err != nil {
		t.Fatalf("SaveAgents error: %v", err)
	}

	second := []session.Participant{
		{ID: "a3", Name: "Carol", Personality: "COO"},
	}
	if err := s.SaveAgents(second); err != nil {
		t.Fatalf("SaveAgents error: %v", err)
	}

	got, err := s.Agents()
	if err != nil {
		t.Fatalf("Agents error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("agents = %d, want the old roster replaced", len(got))
	}
	if got[0].ID != "a3" || got[0].Name != "Carol" || got[0].Personality != "COO" {
		t.Errorf("agent = %+v", got[0])
	}
}

func TestAgents_SortedByName(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveAgents([]session.Participant{
		{ID: "a1", Name: "Zed"},
		{ID: "a2", Name: "Amir"},
		{ID: "a3", Name: "Mona"},
	}); err != nil {
		t.Fatalf("SaveAgents error: %v", err)
	}

	got, err := s.Agents()
	if err != nil {
		t.Fatalf("Agents error: %v", err)
	}
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	want := []string{"Amir", "Mona", "Zed"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestAgents_EmptyDatabase(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Agents()
	if err != nil {
		t.Fatalf("Agents error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("agents = %v, want none", got)
	}
}

func TestSetting_UpsertAndMissing(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.Setting(SettingTheme); err != nil || ok {
		t.Fatalf("unset Setting = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.SetSetting(SettingTheme, "dark"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}
	if err := s.SetSetting(SettingTheme, "light"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}

	v, ok, err := s.Setting(SettingTheme)
	if err != nil {
		t.Fatalf("Setting error: %v", err)
	}
	if !ok || v != "light" {
		t.Errorf("Setting = %q ok=%v, want the upserted value", v, ok)
	}
}

func TestSaveReport_UpsertByRefresh(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveReport(&session.Report{SessionID: "s1", Topic: "expansion", Summary: "draft"}); err != nil {
		t.Fatalf("SaveReport error: %v", err)
	}
	if err := s.SaveReport(&session.Report{SessionID: "s1", Topic: "expansion", Summary: "final"}); err != nil {
		t.Fatalf("SaveReport error: %v", err)
	}

	got, ok, err := s.Report("s1")
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if !ok || got.Summary != "final" {
		t.Errorf("report = %+v ok=%v, want the refreshed payload", got, ok)
	}

	all, err := s.Reports()
	if err != nil {
		t.Fatalf("Reports error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("reports = %d, want the upsert to keep one row", len(all))
	}
}

func TestReport_Missing(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.Report("nope"); err != nil || ok {
		t.Fatalf("Report = ok=%v err=%v, want absent without error", ok, err)
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtable.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.SetSetting(SettingProxy, "https://proxy.internal"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Setting(SettingProxy)
	if err != nil {
		t.Fatalf("Setting error: %v", err)
	}
	if !ok || v != "https://proxy.internal" {
		t.Errorf("Setting = %q ok=%v after reopen", v, ok)
	}
}
