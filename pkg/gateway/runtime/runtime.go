// Package runtime owns live session instances: it wires the engine,
// speech pipeline, playback device and report trigger for each table
// and tears them down on completion.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/report"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
	"github.com/centaurus-ai/roundtable/pkg/core/voice"
	"github.com/centaurus-ai/roundtable/pkg/gateway/live"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

// Deps carries everything a session instance needs.
type Deps struct {
	Store   *session.Store
	Hub     *live.Hub
	Gen     turn.Generator
	Synth   voice.Synthesizer // nil disables voice mode
	Reports report.Generator
	DB      *storage.Store // nil disables persistence

	TickInterval   time.Duration
	ReportInterval time.Duration
	RecordingDir   string

	Logger *slog.Logger
}

// instance is one live table.
type instance struct {
	speech   *voice.Pipeline
	device   voice.Device
	recorder *voice.Recorder
	engine   *turn.Engine
	cancel   context.CancelFunc
}

// Manager creates, looks up and finalizes session instances.
type Manager struct {
	deps Deps

	mu     sync.Mutex
	active map[string]*instance
}

// NewManager creates a manager.
func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	if deps.ReportInterval <= 0 {
		deps.ReportInterval = 120 * time.Second
	}
	return &Manager{
		deps:   deps,
		active: make(map[string]*instance),
	}
}

// CreateParams describes a new table.
type CreateParams struct {
	Topic        string
	Participants []session.Participant
	Mode         session.Mode
	Complexity   int
	Duration     int // seconds; 0 uses the suggested duration
}

// Create validates, stores and starts a session.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*session.Session, error) {
	if p.Topic == "" {
		return nil, core.NewInvalidRequestError("topic must not be empty")
	}
	if len(p.Participants) == 0 {
		return nil, core.NewInvalidRequestError("at least one participant is required")
	}
	if p.Complexity < 1 {
		p.Complexity = 1
	}
	if p.Complexity > 5 {
		p.Complexity = 5
	}
	if p.Mode == "" {
		p.Mode = session.ModeText
	}
	if p.Mode == session.ModeVoice && m.deps.Synth == nil {
		return nil, core.NewInvalidRequestError("voice mode is not available")
	}

	participants := make([]session.Participant, len(p.Participants))
	copy(participants, p.Participants)
	for i := range participants {
		if participants[i].ID == "" {
			participants[i].ID = uuid.NewString()
		}
		if participants[i].Kind == "" {
			participants[i].Kind = session.ParticipantAI
		}
	}
	session.AssignVoices(participants)

	duration := p.Duration
	if duration <= 0 {
		duration = session.SuggestedDuration(len(participants), p.Complexity)
	}

	s := &session.Session{
		ID:            uuid.NewString(),
		Topic:         p.Topic,
		Participants:  participants,
		Messages:      []session.Message{},
		Status:        session.StatusActive,
		TurnIndex:     0,
		Round:         0,
		MaxRounds:     session.DefaultMaxRounds,
		Running:       true,
		Mode:          p.Mode,
		Complexity:    p.Complexity,
		TimeRemaining: duration,
		CreatedAt:     time.Now(),
	}
	m.deps.Store.Put(s)

	if err := m.start(s); err != nil {
		m.deps.Store.Delete(s.ID)
		return nil, err
	}
	return s, nil
}

// start builds and launches an instance for a stored session.
func (m *Manager) start(s *session.Session) error {
	ctx, cancel := context.WithCancel(context.Background())

	inst := &instance{cancel: cancel}
	var speech turn.Speech

	if s.Mode == session.ModeVoice {
		inst.recorder = voice.NewRecorder(voice.DefaultSampleRate)
		inst.device = voice.NewClockDevice(m.deps.Hub.AudioSink(s.ID))
		if err := inst.device.Init(); err != nil {
			cancel()
			return fmt.Errorf("init audio device: %w", err)
		}
		sched := voice.NewScheduler(inst.device, voice.DefaultSampleRate, inst.recorder, m.deps.Logger)
		inst.speech = voice.NewPipeline(m.deps.Synth, sched, voice.PipelineConfig{}, m.deps.Logger)
		go inst.speech.Run(ctx)
		speech = inst.speech
	}

	coord := turn.NewCoordinator(m.deps.Store, m.deps.Gen, speech, m.deps.Hub, m.deps.Logger, turn.CoordinatorConfig{})
	trigger := report.NewTrigger(m.deps.Store, m.deps.Reports, m.deps.Hub, m.deps.Logger, report.TriggerConfig{
		Interval: m.deps.ReportInterval,
	})

	inst.engine = turn.NewEngine(m.deps.Store, coord, speech, m.deps.Hub, m.deps.Logger, s.ID, turn.EngineConfig{
		TickInterval: m.deps.TickInterval,
		OnComplete: func(final *session.Session) {
			m.finalize(final, trigger)
		},
	})

	m.mu.Lock()
	m.active[s.ID] = inst
	m.mu.Unlock()

	go inst.engine.Run(ctx)
	go trigger.Run(ctx, s.ID)
	return nil
}

// finalize produces the terminal report, persists it, closes the
// recording and tears the instance down. Runs once per session.
func (m *Manager) finalize(final *session.Session, trigger *report.Trigger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep := trigger.Refresh(ctx, final.ID)
	if rep == nil {
		rep = report.Fallback(final.ID, final.Topic, time.Now())
	}
	if m.deps.DB != nil {
		if err := m.deps.DB.SaveReport(rep); err != nil {
			m.deps.Logger.Warn("saving final report failed", "session", final.ID, "err", err)
		}
	}

	m.mu.Lock()
	inst := m.active[final.ID]
	delete(m.active, final.ID)
	m.mu.Unlock()
	if inst == nil {
		return
	}

	if inst.recorder != nil {
		path := filepath.Join(m.deps.RecordingDir, final.ID+".wav")
		written, err := inst.recorder.Finalize(path)
		if err != nil {
			m.deps.Logger.Warn("finalizing recording failed", "session", final.ID, "err", err)
		} else if written != "" {
			if _, err := m.deps.Store.Update(final.ID, func(w *session.Session) error {
				w.RecordingPath = written
				return nil
			}); err != nil {
				m.deps.Logger.Warn("storing recording path failed", "session", final.ID, "err", err)
			}
		}
	}
	if inst.device != nil {
		inst.device.Shutdown()
	}
	inst.cancel()
}

// lookup returns the live instance for a session.
func (m *Manager) lookup(id string) (*instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.active[id]
	if !ok {
		return nil, core.NewNotFoundError("no active session: " + id)
	}
	return inst, nil
}

// Pause stops a table.
func (m *Manager) Pause(id string) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	return inst.engine.Pause()
}

// Resume restarts a paused table.
func (m *Manager) Resume(id string) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	return inst.engine.Resume()
}

// Interject submits a human message.
func (m *Manager) Interject(id string, in turn.Interjection) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	return inst.engine.SubmitInterjection(in)
}

// Complete ends a table now.
func (m *Manager) Complete(id string) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	inst.engine.Complete()
	return nil
}

// Shutdown cancels every live instance.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	insts := make([]*instance, 0, len(m.active))
	for _, inst := range m.active {
		insts = append(insts, inst)
	}
	m.active = make(map[string]*instance)
	m.mu.Unlock()
	for _, inst := range insts {
		inst.cancel()
	}
}
