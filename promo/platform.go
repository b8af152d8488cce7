package promo

import "strings"

// Platform identifies the publishing target the user generates content for.
type Platform string

const (
	// PlatformYouTube targets YouTube video metadata.
	PlatformYouTube Platform = "yt"
	// PlatformInstagram targets Instagram post captions.
	PlatformInstagram Platform = "ig"
	// PlatformBoth produces content for both platforms in one pass.
	PlatformBoth Platform = "both"
)

// ParsePlatform maps the callback vocabulary to a Platform.
func ParsePlatform(data string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(data))) {
	case PlatformYouTube:
		return PlatformYouTube, true
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformBoth:
		return PlatformBoth, true
	}
	return "", false
}

// Title returns a human-readable platform name for replies and logs.
func (p Platform) Title() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformInstagram:
		return "Instagram"
	case PlatformBoth:
		return "YouTube + Instagram"
	}
	return string(p)
}
