package dialog

import (
	"github.com/m3rciful/promobot/generation"
	"github.com/m3rciful/promobot/promo"
)

// User-facing reply texts. Kept in one place so wording changes never touch
// the transition logic.
const (
	MsgWelcome = "🤖 Hi! I generate SEO-friendly content for YouTube and Instagram.\n\n" +
		"Pick the platform you want content for, then send me a topic."
	MsgHelp = "Send /start and pick a platform, then reply with your topic.\n" +
		"Use /reset to abandon the current flow at any point."
	MsgChoosePlatform   = "Which platform should the content target?"
	MsgAskTopic         = "Great — now send me the topic in one message."
	MsgGenerating       = "⏳ Generating content, please wait..."
	MsgReset            = "Session reset. Send /start to begin again."
	MsgPlatformFirst    = "⚠️ Please choose a platform first."
	MsgUnknownPlatform  = "⚠️ That platform is not supported. Use the buttons below."
	MsgStartHint        = "Send /start to begin."
	MsgStillGenerating  = "⏳ Still working on your previous request, one moment."
	MsgUnknownCommand   = "Unknown command. Try /start or /help."
	MsgEmptyTopic       = "⚠️ The topic cannot be empty — send a few words describing it."
	MsgErrTimeout       = "❌ The generator took too long to answer. Please try again."
	MsgErrRateLimited   = "❌ The generator is overloaded right now. Please try again in a minute."
	MsgErrServer        = "❌ The generation service failed. Please try again."
	MsgErrClient        = "❌ The generation request was rejected. Please try again later."
	MsgErrMalformed     = "❌ The generator returned an unreadable answer. Please try again."
	MsgErrInternal      = "❌ Something went wrong on our side. Please start over with /start."
)

// PlatformChoices is the inline keyboard offered when asking for a platform.
var PlatformChoices = []Choice{
	{Label: "YouTube", Data: string(promo.PlatformYouTube)},
	{Label: "Instagram", Data: string(promo.PlatformInstagram)},
	{Label: "Both", Data: string(promo.PlatformBoth)},
}

// failureReply maps a generation error kind to the user-visible message.
func failureReply(kind generation.Kind) string {
	switch kind {
	case generation.KindTimeout:
		return MsgErrTimeout
	case generation.KindRateLimited:
		return MsgErrRateLimited
	case generation.KindClient:
		return MsgErrClient
	case generation.KindMalformed:
		return MsgErrMalformed
	default:
		return MsgErrServer
	}
}
