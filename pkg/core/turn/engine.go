package turn

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// Interjection is a human contribution waiting to enter the table.
type Interjection struct {
	Text      string
	TargetIDs []string
	Approve   bool
}

// EngineConfig tunes the per-session turn engine.
type EngineConfig struct {
	// TickInterval drives the turn check and the countdown. One second
	// unless overridden.
	TickInterval time.Duration
	// Tick replaces the internal ticker in tests.
	Tick <-chan time.Time
	// OnComplete fires exactly once when the session completes, with
	// the final snapshot. The gateway hooks final report generation and
	// recording finalization here.
	OnComplete func(s *session.Session)

	Now func() time.Time
}

func (c *EngineConfig) defaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Engine drives one session: every tick it walks the gates in order
// and, when the table is clear, runs the current participant's turn
// under a single-flight lock.
type Engine struct {
	store     *session.Store
	coord     *Coordinator
	speech    Speech
	sink      Sink
	logger    *slog.Logger
	sessionID string
	cfg       EngineConfig

	busy      atomic.Bool
	mu        sync.Mutex
	redirects [][]string
	finalized bool
}

// NewEngine creates an engine for one session. speech may be nil for
// text-only deployments.
func NewEngine(store *session.Store, coord *Coordinator, speech Speech, sink Sink, logger *slog.Logger, sessionID string, cfg EngineConfig) *Engine {
	cfg.defaults()
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		coord:     coord,
		speech:    speech,
		sink:      sink,
		logger:    logger.With("component", "engine", "session", sessionID),
		sessionID: sessionID,
		cfg:       cfg,
	}
}

// Run ticks the engine until the session completes, disappears, or ctx
// is canceled.
func (e *Engine) Run(ctx context.Context) {
	tick := e.cfg.Tick
	if tick == nil {
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if !e.step(ctx) {
				return
			}
		}
	}
}

// step evaluates the gates once. It returns false when the engine is
// done for good.
func (e *Engine) step(ctx context.Context) bool {
	s, ok := e.store.Get(e.sessionID)
	if !ok {
		e.logger.Info("session gone, stopping engine")
		return false
	}
	if s.Status == session.StatusCompleted {
		e.finalize(s)
		return false
	}

	// Countdown runs whenever the table is live.
	if s.Running {
		var hitZero bool
		updated, err := e.store.Update(e.sessionID, func(w *session.Session) error {
			if !w.Running || w.Status == session.StatusCompleted {
				return nil
			}
			if w.TimeRemaining > 0 {
				w.TimeRemaining--
			}
			hitZero = w.TimeRemaining == 0
			return nil
		})
		if err != nil {
			e.logger.Warn("countdown update failed", "err", err)
			return true
		}
		s = updated
		if hitZero {
			e.logger.Info("session time elapsed")
			e.Complete()
			return true
		}
	}

	// A turn in flight owns the table.
	if e.busy.Load() {
		return true
	}

	// Redirects left behind by interjections that landed mid-turn move
	// the pointer now that the table is clear.
	if targets := e.takeRedirects(); len(targets) > 0 {
		if err := e.applyRedirects(targets); err != nil {
			e.logger.Warn("interjection redirect failed", "err", err)
		}
		return true
	}

	if !s.Running {
		return true
	}

	p, ok := s.CurrentParticipant()
	if !ok {
		e.logger.Warn("turn pointer out of range", "index", s.TurnIndex)
		return true
	}

	// In voice mode the table waits for the audio backlog to drain so
	// speech never lags the transcript by more than one turn.
	if s.Mode == session.ModeVoice && e.speech != nil && e.speech.PendingCount() > 0 {
		e.logger.Debug("waiting on audio backlog", "pending", e.speech.PendingCount())
		return true
	}

	// A human seat pauses the table and rings the chime; the table
	// resumes when they interject or explicitly resume.
	if p.IsHuman() {
		_, err := e.store.Update(e.sessionID, func(w *session.Session) error {
			w.Running = false
			return nil
		})
		if err != nil {
			e.logger.Warn("pause for human turn failed", "err", err)
			return true
		}
		if e.speech != nil {
			e.speech.Notify()
		}
		e.sink.Notice(e.sessionID, NoticeHumanTurn)
		e.sink.TurnState(e.sessionID, StateAwaitingHuman)
		return true
	}

	// If the participant at the pointer already authored the latest
	// committed message, their commit is in but the pointer has not
	// moved; wait rather than let them speak twice.
	if last, ok := s.LastCommitted(); ok && last.ParticipantID == p.ID {
		e.logger.Debug("stale commit guard", "participant", p.Name)
		return true
	}

	e.busy.Store(true)
	go func() {
		defer e.busy.Store(false)
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("turn panicked", "participant", p.Name, "panic", r)
			}
		}()
		if err := e.coord.RunTurn(ctx, e.sessionID, p); err != nil && ctx.Err() == nil {
			e.logger.Warn("turn failed", "participant", p.Name, "err", err)
		}
		e.sink.TurnState(e.sessionID, StateIdle)
	}()
	return true
}

// SubmitInterjection commits a human message to the transcript right
// away. With a turn in flight the pointer is left alone, because the
// running turn advances it on its own commit; any targeted redirect is
// queued and applied as soon as the turn clears.
func (e *Engine) SubmitInterjection(in Interjection) error {
	if strings.TrimSpace(in.Text) == "" {
		return core.NewInvalidRequestError("interjection text must not be empty")
	}
	if e.busy.Load() {
		if err := e.commitInterjection(in, false); err != nil {
			return err
		}
		if len(in.TargetIDs) > 0 {
			e.mu.Lock()
			e.redirects = append(e.redirects, in.TargetIDs)
			e.mu.Unlock()
		}
		return nil
	}
	return e.commitInterjection(in, true)
}

func (e *Engine) takeRedirects() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	targets := e.redirects
	e.redirects = nil
	return targets
}

// applyRedirects moves the pointer for redirects that arrived while a
// turn was in flight. Each target list resolves to its first seated
// participant; later redirects win.
func (e *Engine) applyRedirects(targets [][]string) error {
	_, err := e.store.Update(e.sessionID, func(s *session.Session) error {
		if s.Status == session.StatusCompleted {
			return nil
		}
		for _, ids := range targets {
			for _, id := range ids {
				if i, ok := s.ParticipantIndex(id); ok {
					s.TurnIndex = i
					if i == 0 {
						s.Round++
					}
					break
				}
			}
		}
		s.Running = true
		return nil
	})
	return err
}

// commitInterjection appends the human message and forces the table
// back into motion in one store update. With advance set the pointer
// also moves, to the first resolvable target or the next seat.
func (e *Engine) commitInterjection(in Interjection, advance bool) error {
	status := session.StatusUser
	if !in.Approve {
		status = session.StatusRejected
	}

	var msg session.Message
	_, err := e.store.Update(e.sessionID, func(s *session.Session) error {
		if s.Status == session.StatusCompleted {
			return core.NewInvalidRequestError("session already completed")
		}

		author := interjectionAuthor(s)
		msg = session.Message{
			ID:              uuid.NewString(),
			ParticipantID:   author.ID,
			ParticipantName: author.Name,
			Text:            in.Text,
			Timestamp:       e.cfg.Now(),
			Role:            "user",
			Status:          status,
			TargetIDs:       in.TargetIDs,
			Interjection:    true,
		}
		s.Messages = append(s.Messages, msg)

		if advance {
			next := (s.TurnIndex + 1) % len(s.Participants)
			for _, id := range in.TargetIDs {
				if i, ok := s.ParticipantIndex(id); ok {
					next = i
					break
				}
			}
			s.TurnIndex = next
			if next == 0 {
				s.Round++
			}
		}
		s.Running = true
		return nil
	})
	if err != nil {
		return err
	}
	e.sink.TurnState(e.sessionID, StateInterjecting)
	e.sink.Committed(e.sessionID, msg)
	e.sink.TurnState(e.sessionID, StateIdle)
	return nil
}

// interjectionAuthor attributes a human message: the human whose turn
// it is, else the first human at the table, else the architect.
func interjectionAuthor(s *session.Session) session.Participant {
	if p, ok := s.CurrentParticipant(); ok && p.IsHuman() {
		return p
	}
	for _, p := range s.Participants {
		if p.IsHuman() {
			return p
		}
	}
	return session.Participant{ID: session.HumanArchitectID, Name: "Human"}
}

// Pause stops the table. A turn already streaming will still commit its
// text, but the pointer stays put. Queued audio is dropped.
func (e *Engine) Pause() error {
	_, err := e.store.Update(e.sessionID, func(s *session.Session) error {
		s.Running = false
		return nil
	})
	if err != nil {
		return err
	}
	if e.speech != nil {
		e.speech.Cancel()
	}
	e.sink.TurnState(e.sessionID, StatePaused)
	return nil
}

// Resume puts the table back in motion.
func (e *Engine) Resume() error {
	_, err := e.store.Update(e.sessionID, func(s *session.Session) error {
		if s.Status == session.StatusCompleted {
			return core.NewInvalidRequestError("session already completed")
		}
		s.Running = true
		return nil
	})
	if err != nil {
		return err
	}
	e.sink.TurnState(e.sessionID, StateIdle)
	return nil
}

// Complete ends the session. Safe to call more than once; completion
// side effects fire exactly once.
func (e *Engine) Complete() {
	updated, err := e.store.Update(e.sessionID, func(s *session.Session) error {
		s.Status = session.StatusCompleted
		s.Running = false
		return nil
	})
	if err != nil {
		e.logger.Warn("complete failed", "err", err)
		return
	}
	if e.speech != nil {
		e.speech.Cancel()
	}
	e.finalize(updated)
}

// finalize fires completion side effects once.
func (e *Engine) finalize(s *session.Session) {
	e.mu.Lock()
	if e.finalized {
		e.mu.Unlock()
		return
	}
	e.finalized = true
	e.mu.Unlock()

	e.sink.TurnState(e.sessionID, StateCompleted)
	if e.cfg.OnComplete != nil {
		e.cfg.OnComplete(s)
	}
	e.logger.Info("session completed", "messages", len(s.Messages), "rounds", s.Round)
}
