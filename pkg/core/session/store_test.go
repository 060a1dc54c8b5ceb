package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

func TestStore_GetReturnsClone(t *testing.T) {
	st := NewStore()
	st.Put(&Session{ID: "s1", Topic: "original"})

	got, ok := st.Get("s1")
	if !ok {
		t.Fatal("session should exist")
	}
	got.Topic = "mutated"

	again, _ := st.Get("s1")
	if again.Topic != "original" {
		t.Error("mutating a Get result must not affect stored state")
	}
}

func TestStore_GetMissing(t *testing.T) {
	st := NewStore()
	if _, ok := st.Get("nope"); ok {
		t.Error("missing session should report false")
	}
}

func TestStore_UpdateIsAtomic(t *testing.T) {
	st := NewStore()
	st.Put(&Session{ID: "s1"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Update("s1", func(s *Session) error {
				s.Round++
				return nil
			})
			if err != nil {
				t.Errorf("Update error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := st.Get("s1")
	if got.Round != 50 {
		t.Errorf("Round = %d, want 50 (lost update)", got.Round)
	}
}

func TestStore_UpdateErrorAborts(t *testing.T) {
	st := NewStore()
	st.Put(&Session{ID: "s1", Topic: "before"})

	boom := errors.New("boom")
	_, err := st.Update("s1", func(s *Session) error {
		s.Topic = "after"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, _ := st.Get("s1")
	if got.Topic != "before" {
		t.Error("failed update must not store partial state")
	}
}

func TestStore_UpdateMissingIsNotFound(t *testing.T) {
	st := NewStore()
	_, err := st.Update("nope", func(s *Session) error { return nil })
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrNotFound {
		t.Errorf("err = %v, want a not found error", err)
	}
}

func TestStore_WatchSignalsAndCoalesces(t *testing.T) {
	st := NewStore()
	st.Put(&Session{ID: "s1"})

	ch, cancel := st.Watch("s1")
	defer cancel()

	// Two rapid updates coalesce into at least one pending signal.
	for i := 0; i < 2; i++ {
		if _, err := st.Update("s1", func(s *Session) error {
			s.Round++
			return nil
		}); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	}

	select {
	case <-ch:
	default:
		t.Fatal("watcher should have a pending signal")
	}
}

func TestStore_DeleteWakesWatchers(t *testing.T) {
	st := NewStore()
	st.Put(&Session{ID: "s1"})

	ch, cancel := st.Watch("s1")
	defer cancel()

	st.Delete("s1")

	select {
	case <-ch:
	default:
		t.Fatal("delete should signal watchers")
	}
	if _, ok := st.Get("s1"); ok {
		t.Error("session should be gone")
	}
}
