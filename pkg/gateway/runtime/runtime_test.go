package runtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/centaurus-ai/roundtable/pkg/core/report"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
	"github.com/centaurus-ai/roundtable/pkg/gateway/live"
)

type emptyStream struct{}

func (emptyStream) Next() (string, error) { return "", io.EOF }
func (emptyStream) Close() error          { return nil }

type stubGen struct{}

func (stubGen) StreamGenerate(ctx context.Context, req turn.GenRequest) (turn.TextStream, error) {
	return emptyStream{}, nil
}

type stubReports struct{}

func (stubReports) Generate(ctx context.Context, in report.Input) (*session.Report, error) {
	return &session.Report{Summary: "closing summary"}, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, text, voiceName string) ([]byte, error) {
	return []byte{0, 0}, nil
}

func newTestManager(t *testing.T) (*Manager, *session.Store) {
	t.Helper()
	store := session.NewStore()
	m := NewManager(Deps{
		Store:   store,
		Hub:     live.NewHub(nil),
		Gen:     stubGen{},
		Reports: stubReports{},
		// Long enough that no turn runs during a test.
		TickInterval: time.Hour,
		RecordingDir: t.TempDir(),
	})
	t.Cleanup(m.Shutdown)
	return m, store
}

func validParams() CreateParams {
	return CreateParams{
		Topic: "expansion strategy",
		Participants: []session.Participant{
			{Name: "Moderator", ID: session.ModeratorID},
			{Name: "Alice"},
		},
		Complexity: 3,
	}
}

func TestCreate_Defaults(t *testing.T) {
	m, store := newTestManager(t)

	s, err := m.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.ID == "" {
		t.Error("session needs an ID")
	}
	if s.Mode != session.ModeText {
		t.Errorf("Mode = %q, want the text default", s.Mode)
	}
	if !s.Running || s.Status != session.StatusActive {
		t.Errorf("status = %q running = %v", s.Status, s.Running)
	}
	if s.TimeRemaining != session.SuggestedDuration(2, 3) {
		t.Errorf("TimeRemaining = %d", s.TimeRemaining)
	}
	for _, p := range s.Participants {
		if p.ID == "" || p.Kind == "" {
			t.Errorf("participant %q missing identity defaults: %+v", p.Name, p)
		}
		if !p.IsHuman() && p.Voice == "" {
			t.Errorf("participant %q has no voice", p.Name)
		}
	}

	if _, ok := store.Get(s.ID); !ok {
		t.Error("session not stored")
	}
	if err := m.Pause(s.ID); err != nil {
		t.Errorf("instance not live: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	m, _ := newTestManager(t)

	cases := []struct {
		name string
		mut  func(*CreateParams)
	}{
		{"empty topic", func(p *CreateParams) { p.Topic = "" }},
		{"no participants", func(p *CreateParams) { p.Participants = nil }},
		{"voice without synthesizer", func(p *CreateParams) { p.Mode = session.ModeVoice }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mut(&p)
			if _, err := m.Create(context.Background(), p); err == nil {
				t.Fatal("want a validation error")
			}
		})
	}
}

func TestCreate_ComplexityClamped(t *testing.T) {
	m, _ := newTestManager(t)

	p := validParams()
	p.Complexity = 99
	s, err := m.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.Complexity != 5 {
		t.Errorf("Complexity = %d, want clamped to 5", s.Complexity)
	}
}

func TestCreate_VoiceModeWithSynth(t *testing.T) {
	store := session.NewStore()
	m := NewManager(Deps{
		Store:        store,
		Hub:          live.NewHub(nil),
		Gen:          stubGen{},
		Synth:        stubSynth{},
		Reports:      stubReports{},
		TickInterval: time.Hour,
		RecordingDir: t.TempDir(),
	})
	defer m.Shutdown()

	p := validParams()
	p.Mode = session.ModeVoice
	s, err := m.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.Mode != session.ModeVoice {
		t.Errorf("Mode = %q", s.Mode)
	}
}

func TestComplete_FinalizesAndRemovesInstance(t *testing.T) {
	m, store := newTestManager(t)

	s, err := m.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := m.Complete(s.ID); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	got, _ := store.Get(s.ID)
	if got.Status != session.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
	if got.LiveReport == nil || got.LiveReport.Summary != "closing summary" {
		t.Error("final report not produced")
	}
	if err := m.Pause(s.ID); err == nil {
		t.Error("instance must be gone after completion")
	}
}

func TestManager_UnknownSessionIsNotFound(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Resume("nope"); err == nil {
		t.Fatal("want not found")
	}
	if err := m.Interject("nope", turn.Interjection{Text: "hello"}); err == nil {
		t.Fatal("want not found")
	}
}
