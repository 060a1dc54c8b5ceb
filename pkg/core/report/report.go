// Package report generates and refreshes the strategic live report.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// maxInputMessages bounds how much transcript feeds a report.
const maxInputMessages = 15

// maxLineRunes truncates each transcript line fed to the generator.
const maxLineRunes = 100

// Input is the condensed transcript a report is built from.
type Input struct {
	SessionID string
	Topic     string
	Lines     []string
}

// Generator produces a report from condensed transcript input.
type Generator interface {
	Generate(ctx context.Context, in Input) (*session.Report, error)
}

// Notifier learns about refreshed reports. The live feed implements it.
type Notifier interface {
	ReportUpdated(sessionID string, r *session.Report)
}

type nopNotifier struct{}

func (nopNotifier) ReportUpdated(string, *session.Report) {}

// BuildInput condenses a session: the last messages, each truncated,
// oldest first.
func BuildInput(s *session.Session) Input {
	msgs := s.Messages
	if len(msgs) > maxInputMessages {
		msgs = msgs[len(msgs)-maxInputMessages:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, truncateRunes(fmt.Sprintf("%s: %s", m.ParticipantName, m.Text), maxLineRunes))
	}
	return Input{SessionID: s.ID, Topic: s.Topic, Lines: lines}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Fallback returns a non-nil placeholder report so the UI never renders
// an empty panel after the first trigger.
func Fallback(sessionID, topic string, now time.Time) *session.Report {
	return &session.Report{
		SessionID:     sessionID,
		Topic:         topic,
		Summary:       "متاسفانه تهیه گزارش در این لحظه ممکن نیست. بحث ادامه دارد و گزارش در بروزرسانی بعدی تکمیل می‌شود.",
		KeyInsights:   []string{},
		KeyTakeaways:  []session.AgentTakeaway{},
		RiskMatrix:    []session.RiskEntry{},
		FinalDecision: "",
		Timeline:      []session.TimelineEntry{},
		GeneratedAt:   now,
	}
}

// TriggerConfig tunes the periodic report refresh.
type TriggerConfig struct {
	// Interval between refreshes while the session runs.
	Interval time.Duration
	// MinMessages gates generation; tiny transcripts produce noise.
	MinMessages int
	// RetryAttempts bounds generation retries per refresh.
	RetryAttempts int

	// Test hooks.
	Tick  <-chan time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

func (c *TriggerConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = 120 * time.Second
	}
	if c.MinMessages <= 0 {
		c.MinMessages = 3
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 2
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Trigger refreshes a session's live report on an interval while the
// table runs, and produces the terminal report on completion.
type Trigger struct {
	store    *session.Store
	gen      Generator
	notifier Notifier
	logger   *slog.Logger
	cfg      TriggerConfig
}

// NewTrigger wires a report trigger.
func NewTrigger(store *session.Store, gen Generator, notifier Notifier, logger *slog.Logger, cfg TriggerConfig) *Trigger {
	cfg.defaults()
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		store:    store,
		gen:      gen,
		notifier: notifier,
		logger:   logger.With("component", "report"),
		cfg:      cfg,
	}
}

// Run refreshes the live report until ctx is done or the session ends.
func (t *Trigger) Run(ctx context.Context, sessionID string) {
	tick := t.cfg.Tick
	if tick == nil {
		ticker := time.NewTicker(t.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s, ok := t.store.Get(sessionID)
			if !ok || s.Status == session.StatusCompleted {
				return
			}
			if !s.Running || len(s.Messages) < t.cfg.MinMessages {
				continue
			}
			t.Refresh(ctx, sessionID)
		}
	}
}

// Refresh regenerates the live report now. On failure the previous
// report is kept if one exists; otherwise the fallback lands so the
// report is never nil after a trigger.
func (t *Trigger) Refresh(ctx context.Context, sessionID string) *session.Report {
	s, ok := t.store.Get(sessionID)
	if !ok {
		return nil
	}

	rep, err := t.generate(ctx, BuildInput(s))
	if err != nil {
		t.logger.Warn("report generation failed", "err", err)
		if s.LiveReport != nil {
			return s.LiveReport
		}
		rep = Fallback(s.ID, s.Topic, t.cfg.Now())
	}
	rep.SessionID = s.ID
	rep.Topic = s.Topic
	rep.GeneratedAt = t.cfg.Now()

	updated, err := t.store.Update(sessionID, func(w *session.Session) error {
		w.LiveReport = rep
		return nil
	})
	if err != nil {
		t.logger.Warn("report store failed", "err", err)
		return rep
	}
	t.notifier.ReportUpdated(sessionID, updated.LiveReport)
	return rep
}

func (t *Trigger) generate(ctx context.Context, in Input) (*session.Report, error) {
	policy := core.DefaultRetryPolicy(t.cfg.RetryAttempts)
	policy.Sleep = t.cfg.Sleep
	var rep *session.Report
	err := core.Retry(ctx, policy, func(ctx context.Context) error {
		var err error
		rep, err = t.gen.Generate(ctx, in)
		if err == nil && rep == nil {
			return core.NewAPIError("generator returned nil report")
		}
		return err
	})
	return rep, err
}

// Prompt renders the generation prompt for an input. Exposed so
// generator implementations share one shape.
func Prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce a strategic status report, in Persian, for the round table discussion on: %s\n\n", in.Topic)
	b.WriteString("Recent discussion:\n")
	for _, line := range in.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\nReturn JSON with summary, keyInsights, keyTakeaways, riskMatrix, finalDecision and timeline.")
	return b.String()
}
