// Package bot assembles the promobot Telegram surface: command registry,
// callback routing, and the bridge between telebot updates and the dialogue
// engine.
package bot

import (
	"context"
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/promobot/core/config"
	tg "github.com/m3rciful/promobot/core/telegram"
	"github.com/m3rciful/promobot/core/telegram/callbacks"
	"github.com/m3rciful/promobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/router"
	"github.com/m3rciful/promobot/core/telegram/sender"
	"github.com/m3rciful/promobot/dialog"
	"github.com/m3rciful/promobot/history"
	"github.com/m3rciful/promobot/session"

	tele "gopkg.in/telebot.v4"
)

const (
	// platformCallback is the unique key for platform selection buttons.
	platformCallback = "platform"

	msgTooFast     = "⏳ Not so fast, give me a second."
	msgAdminOnly   = "This command is not available."
	msgSendTextPls = "Please send regular text messages."
)

// Options carries everything the bot needs to run.
type Options struct {
	Config   *coreconfig.Config
	Engine   *dialog.Engine
	Sessions *session.Store
	// History is optional; /stats skips totals when nil.
	History *history.Store
}

// Bot binds the dialogue engine to the Telegram transport.
type Bot struct {
	cfg        *coreconfig.Config
	engine     *dialog.Engine
	sessions   *session.Store
	history    *history.Store
	started    time.Time
	dispatcher *sender.Dispatcher
}

// New builds a Bot from options.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: nil dialog engine")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("bot: nil session store")
	}
	return &Bot{
		cfg:      opts.Config,
		engine:   opts.Engine,
		sessions: opts.Sessions,
		history:  opts.History,
		started:  time.Now(),
	}, nil
}

// Run starts the Telegram loop and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	reg := b.buildRegistry()

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, msgTooFast)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: b.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, msgAdminOnly)
		},
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownMedia: func(c tele.Context) error {
			return tghelpers.SendText(c, msgSendTextPls)
		},
	})...)

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      b.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(b.cfg, onLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			b.dispatcher = rt.Dispatcher
			return nil
		},
	})
}

func (b *Bot) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.commandHandler("start"),
		Description: "Begin a new content flow",
	})
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     b.commandHandler("reset"),
		Description: "Abandon the current flow",
		Aliases:     []string{"cancel"},
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     b.commandHandler("help"),
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     b.statsHandler,
		Description: "Service statistics",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(platformCallback, func(c tele.Context) error {
		return b.dispatch(c, dialog.ButtonPress{Data: callbacks.CallbackPayload(c)})
	})

	reg.SetTextFallback(func(c tele.Context) error {
		return b.dispatch(c, dialog.TextMessage{Text: c.Text()})
	})

	return reg
}

func (b *Bot) commandHandler(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.dispatch(c, dialog.Command{Name: name})
	}
}

// dispatch forwards one update to the engine with a sink bound to this chat.
func (b *Bot) dispatch(c tele.Context, ev dialog.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return b.engine.HandleEvent(ctx, sender.ID, ev, sinkFor(c))
}

func (b *Bot) statsHandler(c tele.Context) error {
	uptime := time.Since(b.started).Round(time.Second)
	text := fmt.Sprintf("Uptime: %s\nActive sessions: %d", uptime, b.sessions.Len())
	if b.dispatcher != nil {
		text += fmt.Sprintf("\nSend failures: %d", b.dispatcher.ErrorCount())
	}
	if b.history != nil {
		ctx := tghelpers.BuildContext(c)
		if n, err := b.history.CountSince(ctx, time.Now().Add(-24*time.Hour)); err == nil {
			text += fmt.Sprintf("\nGenerations (24h): %d", n)
		}
	}
	return tghelpers.SendText(c, text)
}
