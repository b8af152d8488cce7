package bot

import (
	tghelpers "github.com/m3rciful/promobot/core/telegram/helpers"
	"github.com/m3rciful/promobot/core/telegram/keyboard"
	"github.com/m3rciful/promobot/dialog"

	tele "gopkg.in/telebot.v4"
)

// sinkFor adapts a telebot context into a dialog.Sink. Choices are rendered
// as an inline keyboard with one button per row.
func sinkFor(c tele.Context) dialog.Sink {
	return func(out dialog.Outbound) error {
		return tghelpers.SendWithMarkup(c, out.Text, choicesMarkup(out.Choices))
	}
}

func choicesMarkup(choices []dialog.Choice) *tele.ReplyMarkup {
	if len(choices) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(choices))
	for _, ch := range choices {
		btns = append(btns, keyboard.InlineBtn{
			Text:   ch.Label,
			Unique: platformCallback,
			Data:   ch.Data,
		})
	}
	return keyboard.InlineButtons(btns)
}
