// Package promo builds model prompts for platform-specific promotional copy.
// It is the single place platform wording lives; the topic is interpolated
// verbatim and length limits are the caller's concern.
package promo

import "fmt"

// BuildPrompt returns the generation prompt for the given platform and topic.
// It is a total function: unknown platforms fall back to the combined prompt.
func BuildPrompt(platform Platform, topic string) string {
	switch platform {
	case PlatformYouTube:
		return fmt.Sprintf(
			"Generate an SEO-friendly YouTube video title, description with calls to action "+
				"(like, share, subscribe), and relevant viral hashtags for the topic: '%s'. "+
				"Format the response as:\n"+
				"Title: <title>\nDescription: <description>\nHashtags: <hashtags>",
			topic,
		)
	case PlatformInstagram:
		return fmt.Sprintf(
			"Generate an Instagram post caption with an engaging title, description, calls to action "+
				"(like, comment, follow), and relevant viral hashtags for the topic: '%s'. "+
				"Format the response as:\n"+
				"Title: <title>\nCaption: <caption>\nHashtags: <hashtags>",
			topic,
		)
	default:
		return fmt.Sprintf(
			"Generate SEO-friendly YouTube and Instagram content for the topic: '%s'.\n"+
				"Include:\n"+
				"1) YouTube Title\n2) YouTube Description with calls to action\n3) YouTube hashtags\n"+
				"4) Instagram Caption with calls to action\n5) Instagram hashtags\n"+
				"Format your answer clearly with headings.",
			topic,
		)
	}
}
