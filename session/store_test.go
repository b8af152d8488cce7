package session

import (
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/promobot/promo"
)

func TestGetOrCreateStartsIdle(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate(7)
	if sess.UserID != 7 || sess.State != StateIdle {
		t.Fatalf("unexpected new session: %+v", sess)
	}
	if _, ok := store.Get(7); !ok {
		t.Fatal("session should persist after GetOrCreate")
	}
	if _, ok := store.Get(8); ok {
		t.Fatal("unknown user should not exist")
	}
}

func TestUpdateAppliesMutation(t *testing.T) {
	store := NewStore()
	got := store.Update(1, func(s *Session) {
		s.State = StateAwaitingTopic
		s.Platform = promo.PlatformYouTube
	})
	if got.State != StateAwaitingTopic || got.Platform != promo.PlatformYouTube {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.LastActivity.IsZero() {
		t.Fatal("LastActivity must be refreshed on update")
	}
}

func TestUpdateSameUserIsOrdered(t *testing.T) {
	store := NewStore()
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			store.Update(42, func(s *Session) {
				s.Topic += "x"
			})
		}()
	}
	wg.Wait()
	sess, _ := store.Get(42)
	if len(sess.Topic) != n {
		t.Fatalf("lost updates: got %d appended runes, want %d", len(sess.Topic), n)
	}
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for _, id := range []int64{1, 2} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Update(id, func(s *Session) { s.State = StateAwaitingPlatform })
			store.Update(id, func(s *Session) {
				s.State = StateAwaitingTopic
				if id == 1 {
					s.Platform = promo.PlatformYouTube
				} else {
					s.Platform = promo.PlatformInstagram
				}
			})
			store.Update(id, func(s *Session) { s.Topic = "topic" })
		}(id)
	}
	wg.Wait()

	one, _ := store.Get(1)
	two, _ := store.Get(2)
	if one.Platform != promo.PlatformYouTube || two.Platform != promo.PlatformInstagram {
		t.Fatalf("sessions bled into each other: %+v / %+v", one, two)
	}
	if one.State != StateAwaitingTopic || two.State != StateAwaitingTopic {
		t.Fatalf("states diverged from sequential replay: %+v / %+v", one, two)
	}
}

func TestEvictIdle(t *testing.T) {
	store := NewStore()
	now := time.Now()
	store.clock = func() time.Time { return now.Add(-time.Hour) }
	store.GetOrCreate(1)
	store.clock = func() time.Time { return now }
	store.GetOrCreate(2)

	if n := store.EvictIdle(30 * time.Minute); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if _, ok := store.Get(1); ok {
		t.Fatal("stale session should be gone")
	}
	if _, ok := store.Get(2); !ok {
		t.Fatal("fresh session should survive")
	}
}

func TestEvictIdleZeroDurationIsNoop(t *testing.T) {
	store := NewStore()
	store.GetOrCreate(1)
	if n := store.EvictIdle(0); n != 0 {
		t.Fatalf("evicted %d, want 0", n)
	}
}

func TestReset(t *testing.T) {
	store := NewStore()
	store.Update(5, func(s *Session) {
		s.State = StateAwaitingTopic
		s.Platform = promo.PlatformBoth
		s.Topic = "cats"
	})
	got := store.Update(5, func(s *Session) { s.Reset() })
	if got.State != StateIdle || got.Platform != "" || got.Topic != "" {
		t.Fatalf("reset incomplete: %+v", got)
	}
}
