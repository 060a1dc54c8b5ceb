package turn

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/voice"
)

// CoordinatorConfig tunes turn generation.
type CoordinatorConfig struct {
	// RetryAttempts bounds generation retries per turn.
	RetryAttempts int
	// ThinkBase and ThinkJitter shape the pre-turn thinking pause:
	// base plus a random duration in [0, jitter).
	ThinkBase   time.Duration
	ThinkJitter time.Duration
	// Spacing is the pause between sentence hand-offs to synthesis.
	Spacing time.Duration
	// Temperature for generation.
	Temperature float64

	// Test hooks.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func(max time.Duration) time.Duration
	Now    func() time.Time
}

func (c *CoordinatorConfig) defaults() {
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 4
	}
	if c.ThinkBase <= 0 {
		c.ThinkBase = time.Second
	}
	if c.ThinkJitter <= 0 {
		c.ThinkJitter = 2 * time.Second
	}
	if c.Spacing <= 0 {
		c.Spacing = 500 * time.Millisecond
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
	if c.Jitter == nil {
		c.Jitter = func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return rand.N(max)
		}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Coordinator runs a single participant turn: thinking pause, streamed
// generation with bounded retry, sentence hand-off to synthesis, and
// the atomic commit-and-advance.
type Coordinator struct {
	store  *session.Store
	gen    Generator
	speech Speech
	sink   Sink
	logger *slog.Logger
	cfg    CoordinatorConfig
}

// NewCoordinator wires a coordinator. speech may be nil for text-only
// deployments.
func NewCoordinator(store *session.Store, gen Generator, speech Speech, sink Sink, logger *slog.Logger, cfg CoordinatorConfig) *Coordinator {
	cfg.defaults()
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:  store,
		gen:    gen,
		speech: speech,
		sink:   sink,
		logger: logger.With("component", "coordinator"),
		cfg:    cfg,
	}
}

// RunTurn executes one turn for participant p. Generation failures are
// absorbed: after retries are exhausted a placeholder message commits
// and the table keeps moving. A canceled context aborts without
// committing.
func (c *Coordinator) RunTurn(ctx context.Context, sessionID string, p session.Participant) error {
	c.sink.TurnState(sessionID, StateThinking)
	if err := c.cfg.Sleep(ctx, c.cfg.ThinkBase+c.cfg.Jitter(c.cfg.ThinkJitter)); err != nil {
		return err
	}

	// Always build context from the latest snapshot; an interjection may
	// have landed during the thinking pause.
	snap, ok := c.store.Get(sessionID)
	if !ok {
		return core.NewNotFoundError("session not found: " + sessionID)
	}
	if snap.Status == session.StatusCompleted {
		return nil
	}
	if !snap.Running {
		return nil
	}
	system := buildSystem(snap, p)
	prompt := buildPrompt(snap, p)
	voiceMode := snap.Mode == session.ModeVoice && c.speech != nil

	c.sink.TurnState(sessionID, StateGenerating)

	// Retry covers opening the stream only. Once deltas have gone out
	// as ghost text or speech, a retry would replay them; a broken
	// stream falls through to the placeholder instead.
	var stream TextStream
	policy := core.DefaultRetryPolicy(c.cfg.RetryAttempts)
	policy.Sleep = c.cfg.Sleep
	err := core.Retry(ctx, policy, func(ctx context.Context) error {
		s, err := c.gen.StreamGenerate(ctx, GenRequest{
			System:      system,
			Prompt:      prompt,
			Temperature: c.cfg.Temperature,
		})
		if err != nil {
			if core.IsRateLimit(err) {
				c.sink.Notice(sessionID, NoticeWaitingForQuota)
			}
			return err
		}
		stream = s
		return nil
	})

	var text string
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.logger.Warn("generation exhausted retries", "participant", p.Name, "err", err)
		text = GenerationFailedText
	} else {
		text, err = c.consumeStream(ctx, stream, sessionID, p, voiceMode)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.logger.Warn("stream failed mid-turn", "participant", p.Name, "err", err)
			text = GenerationFailedText
		}
	}
	if strings.TrimSpace(text) == "" {
		text = GenerationFailedText
	}

	return c.Commit(sessionID, p, text)
}

// consumeStream drains one generation stream, forwarding ghost deltas
// and, in voice mode, complete sentences to synthesis.
func (c *Coordinator) consumeStream(ctx context.Context, stream TextStream, sessionID string, p session.Participant, voiceMode bool) (string, error) {
	defer stream.Close()

	c.sink.GhostStart(sessionID, p.ID)

	var full strings.Builder
	var buf *voice.SentenceBuffer
	if voiceMode {
		buf = voice.NewSentenceBuffer()
	}

	for {
		delta, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		c.sink.Ghost(sessionID, p.ID, delta)
		if buf != nil {
			for _, sent := range buf.Add(delta) {
				c.speech.Speak(sent, p.Voice)
				if err := c.cfg.Sleep(ctx, c.cfg.Spacing); err != nil {
					return "", err
				}
			}
		}
	}
	if buf != nil {
		if tail := buf.Flush(); tail != "" {
			c.speech.Speak(tail, p.Voice)
		}
	}
	return full.String(), nil
}

// Commit appends the turn's message and advances the pointer in one
// store update. While the session is paused the text still commits but
// the pointer stays put, so a pause never loses a finished response.
func (c *Coordinator) Commit(sessionID string, p session.Participant, text string) error {
	msg := session.Message{
		ID:              uuid.NewString(),
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Text:            text,
		Timestamp:       c.cfg.Now(),
		Role:            "assistant",
		Status:          session.StatusApproved,
	}

	_, err := c.store.Update(sessionID, func(s *session.Session) error {
		if s.Status == session.StatusCompleted {
			return core.NewInvalidRequestError("session already completed")
		}
		s.Messages = append(s.Messages, msg)
		if !s.Running {
			return nil
		}

		n := len(s.Participants)
		next := (s.TurnIndex + 1) % n
		if target, ok := HandoffTarget(s, p, text); ok {
			next = target
		}
		s.TurnIndex = next
		// Any landing on seat zero opens a new round, hand-off included.
		if next == 0 {
			s.Round++
		}
		if s.Round >= s.MaxRounds {
			s.Status = session.StatusCompleted
			s.Running = false
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.sink.Committed(sessionID, msg)
	return nil
}
