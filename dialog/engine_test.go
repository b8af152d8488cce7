package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/promobot/generation"
	"github.com/m3rciful/promobot/promo"
	"github.com/m3rciful/promobot/session"
)

type fakeGen struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGen) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type collector struct {
	mu   sync.Mutex
	msgs []Outbound
}

func (c *collector) sink() Sink {
	return func(out Outbound) error {
		c.mu.Lock()
		c.msgs = append(c.msgs, out)
		c.mu.Unlock()
		return nil
	}
}

func (c *collector) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.Text
	}
	return out
}

func newTestEngine(gen *fakeGen) (*Engine, *session.Store) {
	store := session.NewStore()
	return NewEngine(store, gen, nil), store
}

func handle(t *testing.T, e *Engine, userID int64, ev Event, sink Sink) {
	t.Helper()
	if err := e.HandleEvent(context.Background(), userID, ev, sink); err != nil {
		t.Fatalf("HandleEvent(%T): %v", ev, err)
	}
}

func stateOf(t *testing.T, store *session.Store, userID int64) session.State {
	t.Helper()
	sess, ok := store.Get(userID)
	if !ok {
		t.Fatalf("no session for user %d", userID)
	}
	return sess.State
}

func TestStartOffersPlatformChoice(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, Command{Name: "/start"}, c.sink())

	if got := stateOf(t, store, 1); got != session.StateAwaitingPlatform {
		t.Fatalf("state = %s, want awaiting_platform", got)
	}
	if len(c.msgs) != 2 || len(c.msgs[1].Choices) != 3 {
		t.Fatalf("expected welcome + keyboard, got %+v", c.msgs)
	}
}

func TestTextBeforePlatformIsRejected(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, Command{Name: "/start"}, c.sink())
	handle(t, e, 1, TextMessage{Text: "cats"}, c.sink())

	if got := stateOf(t, store, 1); got != session.StateAwaitingPlatform {
		t.Fatalf("state changed on premature topic: %s", got)
	}
	last := c.msgs[len(c.msgs)-1]
	if last.Text != MsgPlatformFirst {
		t.Fatalf("want platform-first hint, got %q", last.Text)
	}
	sess, _ := store.Get(1)
	if sess.Topic != "" {
		t.Fatalf("topic must not be recorded: %q", sess.Topic)
	}
}

func TestUnknownButtonPayloadDoesNotSetPlatform(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, Command{Name: "/start"}, c.sink())
	handle(t, e, 1, ButtonPress{Data: "tiktok"}, c.sink())

	sess, _ := store.Get(1)
	if sess.Platform != "" || sess.State != session.StateAwaitingPlatform {
		t.Fatalf("invalid payload mutated session: %+v", sess)
	}
	last := c.msgs[len(c.msgs)-1]
	if last.Text != MsgUnknownPlatform {
		t.Fatalf("want unknown-platform reply, got %q", last.Text)
	}
}

func TestButtonOutsideAwaitingPlatformIsCorrective(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, ButtonPress{Data: "yt"}, c.sink())

	sess, _ := store.Get(1)
	if sess.Platform != "" || sess.State != session.StateIdle {
		t.Fatalf("idle button press mutated session: %+v", sess)
	}
}

func TestFullFlowYouTube(t *testing.T) {
	gen := &fakeGen{reply: "Title: Cats\nDescription: ...\nHashtags: #cats"}
	e, store := newTestEngine(gen)
	var c collector

	handle(t, e, 1, Command{Name: "/start"}, c.sink())
	handle(t, e, 1, ButtonPress{Data: "yt"}, c.sink())
	if got := stateOf(t, store, 1); got != session.StateAwaitingTopic {
		t.Fatalf("state after platform = %s", got)
	}
	sess, _ := store.Get(1)
	if sess.Platform != promo.PlatformYouTube {
		t.Fatalf("platform = %s", sess.Platform)
	}

	handle(t, e, 1, TextMessage{Text: "cats"}, c.sink())
	if got := stateOf(t, store, 1); got != session.StateIdle {
		t.Fatalf("state after generation = %s, want idle", got)
	}

	calls := gen.calls()
	if len(calls) != 1 || !strings.Contains(calls[0], "cats") {
		t.Fatalf("generator calls = %v", calls)
	}

	texts := c.texts()
	ackIdx, resIdx := -1, -1
	for i, txt := range texts {
		if txt == MsgGenerating {
			ackIdx = i
		}
		if txt == gen.reply {
			resIdx = i
		}
	}
	if ackIdx == -1 || resIdx == -1 || ackIdx > resIdx {
		t.Fatalf("ack/result ordering broken: %v", texts)
	}
}

func TestGenerationFailureResetsToIdle(t *testing.T) {
	cases := []struct {
		kind generation.Kind
		want string
	}{
		{generation.KindTimeout, MsgErrTimeout},
		{generation.KindRateLimited, MsgErrRateLimited},
		{generation.KindServer, MsgErrServer},
		{generation.KindClient, MsgErrClient},
		{generation.KindMalformed, MsgErrMalformed},
	}
	for _, tc := range cases {
		gen := &fakeGen{err: &generation.Error{Kind: tc.kind}}
		e, store := newTestEngine(gen)
		var c collector
		handle(t, e, 1, Command{Name: "/start"}, c.sink())
		handle(t, e, 1, ButtonPress{Data: "ig"}, c.sink())
		handle(t, e, 1, TextMessage{Text: "food"}, c.sink())

		if got := stateOf(t, store, 1); got != session.StateIdle {
			t.Fatalf("%s: state = %s, want idle", tc.kind, got)
		}
		last := c.texts()[len(c.texts())-1]
		if last != tc.want {
			t.Fatalf("%s: reply = %q, want %q", tc.kind, last, tc.want)
		}
	}
}

func TestTextWhileGeneratingGetsHint(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	store.Update(1, func(s *session.Session) {
		s.State = session.StateGenerating
		s.Platform = promo.PlatformYouTube
		s.Topic = "cats"
	})
	var c collector
	handle(t, e, 1, TextMessage{Text: "more"}, c.sink())
	if got := stateOf(t, store, 1); got != session.StateGenerating {
		t.Fatalf("state = %s, want generating", got)
	}
	if c.texts()[0] != MsgStillGenerating {
		t.Fatalf("reply = %q", c.texts()[0])
	}
}

func TestResetFromAnyState(t *testing.T) {
	e, store := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, Command{Name: "/start"}, c.sink())
	handle(t, e, 1, ButtonPress{Data: "both"}, c.sink())
	handle(t, e, 1, Command{Name: "/reset"}, c.sink())

	sess, _ := store.Get(1)
	if sess.State != session.StateIdle || sess.Platform != "" {
		t.Fatalf("reset incomplete: %+v", sess)
	}
}

func TestIdleTextPromptsStart(t *testing.T) {
	e, _ := newTestEngine(&fakeGen{reply: "ok"})
	var c collector
	handle(t, e, 1, TextMessage{Text: "hello"}, c.sink())
	if c.texts()[0] != MsgStartHint {
		t.Fatalf("reply = %q", c.texts()[0])
	}
}

func TestInterleavedUsersMatchSequentialReplay(t *testing.T) {
	gen := &fakeGen{reply: "generated"}
	e, store := newTestEngine(gen)

	flow := func(userID int64, platform string) []Event {
		return []Event{
			Command{Name: "/start"},
			ButtonPress{Data: platform},
			TextMessage{Text: "topic"},
		}
	}

	var wg sync.WaitGroup
	for _, u := range []struct {
		id       int64
		platform string
	}{{1, "yt"}, {2, "ig"}} {
		wg.Add(1)
		go func(id int64, platform string) {
			defer wg.Done()
			var c collector
			for _, ev := range flow(id, platform) {
				_ = e.HandleEvent(context.Background(), id, ev, c.sink())
			}
		}(u.id, u.platform)
	}
	wg.Wait()

	for _, id := range []int64{1, 2} {
		if got := stateOf(t, store, id); got != session.StateIdle {
			t.Fatalf("user %d final state = %s, want idle", id, got)
		}
	}
	if len(gen.calls()) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(gen.calls()))
	}
}
