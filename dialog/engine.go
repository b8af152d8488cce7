package dialog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/generation"
	"github.com/m3rciful/promobot/promo"
	"github.com/m3rciful/promobot/session"
)

// Generator produces text for a prompt. *generation.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder persists a finished generation. Optional; nil disables recording.
type Recorder interface {
	Record(ctx context.Context, userID int64, platform promo.Platform, topic, output string) error
}

// Engine is the dialogue state machine. One Engine serves all users; per-user
// ordering comes from the session store's per-user locking.
type Engine struct {
	store    *session.Store
	gen      Generator
	recorder Recorder
}

// NewEngine wires the state machine to its collaborators.
func NewEngine(store *session.Store, gen Generator, recorder Recorder) *Engine {
	return &Engine{store: store, gen: gen, recorder: recorder}
}

// HandleEvent processes one inbound event for userID and delivers replies via
// send, in order. Events with no defined transition produce a corrective hint
// and leave the session unchanged; no event ever returns without a reply.
func (e *Engine) HandleEvent(ctx context.Context, userID int64, ev Event, send Sink) error {
	switch ev := ev.(type) {
	case Command:
		return e.handleCommand(ctx, userID, ev, send)
	case ButtonPress:
		return e.handleButton(ctx, userID, ev, send)
	case TextMessage:
		return e.handleText(ctx, userID, ev, send)
	default:
		return send(Outbound{Text: MsgStartHint})
	}
}

func (e *Engine) handleCommand(ctx context.Context, userID int64, cmd Command, send Sink) error {
	switch strings.TrimPrefix(strings.ToLower(cmd.Name), "/") {
	case "start":
		e.store.Update(userID, func(s *session.Session) {
			s.Reset()
			s.State = session.StateAwaitingPlatform
		})
		if err := send(Outbound{Text: MsgWelcome}); err != nil {
			return err
		}
		return send(Outbound{Text: MsgChoosePlatform, Choices: PlatformChoices})
	case "reset":
		e.store.Update(userID, func(s *session.Session) { s.Reset() })
		return send(Outbound{Text: MsgReset})
	case "help":
		e.touch(userID)
		return send(Outbound{Text: MsgHelp})
	default:
		e.touch(userID)
		return send(Outbound{Text: MsgUnknownCommand})
	}
}

func (e *Engine) handleButton(ctx context.Context, userID int64, press ButtonPress, send Sink) error {
	platform, ok := promo.ParsePlatform(press.Data)
	if !ok {
		e.touch(userID)
		logger.Debug(ctx, "dialog", "button.unknown",
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(press.Data, 64)),
		)
		return send(Outbound{Text: MsgUnknownPlatform, Choices: PlatformChoices})
	}

	var accepted bool
	e.store.Update(userID, func(s *session.Session) {
		if s.State != session.StateAwaitingPlatform {
			return
		}
		s.Platform = platform
		s.State = session.StateAwaitingTopic
		accepted = true
	})
	if !accepted {
		// Platform press outside AwaitingPlatform: corrective, no transition.
		return send(Outbound{Text: MsgStartHint})
	}
	return send(Outbound{Text: MsgAskTopic})
}

func (e *Engine) handleText(ctx context.Context, userID int64, msg TextMessage, send Sink) error {
	topic := strings.TrimSpace(msg.Text)

	var (
		state    session.State
		platform promo.Platform
		accepted bool
	)
	e.store.Update(userID, func(s *session.Session) {
		state = s.State
		if s.State != session.StateAwaitingTopic || topic == "" {
			return
		}
		s.Topic = topic
		s.State = session.StateGenerating
		platform = s.Platform
		accepted = true
	})

	if !accepted {
		switch state {
		case session.StateAwaitingPlatform:
			return send(Outbound{Text: MsgPlatformFirst, Choices: PlatformChoices})
		case session.StateGenerating:
			return send(Outbound{Text: MsgStillGenerating})
		case session.StateAwaitingTopic:
			return send(Outbound{Text: MsgEmptyTopic})
		default:
			return send(Outbound{Text: MsgStartHint})
		}
	}

	return e.generate(ctx, userID, platform, topic, send)
}

// generate runs the Generating step: ack, model call, result. Whatever
// happens the session ends up Idle so the user is never stuck.
func (e *Engine) generate(ctx context.Context, userID int64, platform promo.Platform, topic string, send Sink) error {
	if platform == "" || topic == "" {
		// Must be unreachable given the transition table.
		e.store.Update(userID, func(s *session.Session) { s.Reset() })
		logger.Error(ctx, "dialog", "generate.missing_prerequisite",
			slog.Int64("user_id", userID),
			slog.String("platform", string(platform)),
			slog.Int("topic_len", len(topic)),
		)
		return send(Outbound{Text: MsgErrInternal})
	}

	if err := send(Outbound{Text: MsgGenerating}); err != nil {
		e.store.Update(userID, func(s *session.Session) { s.Reset() })
		return err
	}

	prompt := promo.BuildPrompt(platform, topic)
	start := time.Now()
	text, err := e.gen.Generate(ctx, prompt)

	e.store.Update(userID, func(s *session.Session) { s.Reset() })

	if err != nil {
		kind := generation.KindOf(err)
		logger.Warn(ctx, "dialog", "generate.fail",
			slog.Int64("user_id", userID),
			slog.String("platform", string(platform)),
			slog.String("err_kind", string(kind)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.Took(start)),
		)
		return send(Outbound{Text: failureReply(kind)})
	}

	logger.Info(ctx, "dialog", "generate.success",
		slog.Int64("user_id", userID),
		slog.String("platform", string(platform)),
		slog.Int("topic_len", len(topic)),
		slog.Int("prompt_len", len(prompt)),
		slog.Int("output_len", len(text)),
		slog.Duration("duration", logger.Took(start)),
	)

	if e.recorder != nil {
		if recErr := e.recorder.Record(ctx, userID, platform, topic, text); recErr != nil {
			logger.Warn(ctx, "dialog", "history.record.fail",
				slog.Int64("user_id", userID),
				slog.String("err", logger.SanitizeLimit(recErr.Error(), 256)),
			)
		}
	}

	return send(Outbound{Text: text})
}

// touch refreshes LastActivity without changing dialogue state.
func (e *Engine) touch(userID int64) {
	e.store.Update(userID, nil)
}
