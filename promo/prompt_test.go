package promo

import (
	"strings"
	"testing"
)

func TestBuildPromptYouTube(t *testing.T) {
	prompt := BuildPrompt(PlatformYouTube, "cats")
	for _, want := range []string{"Title:", "Description:", "Hashtags:", "cats"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("youtube prompt missing %q: %s", want, prompt)
		}
	}
	if !strings.Contains(prompt, "subscribe") {
		t.Fatalf("youtube prompt missing subscribe CTA: %s", prompt)
	}
}

func TestBuildPromptInstagram(t *testing.T) {
	prompt := BuildPrompt(PlatformInstagram, "summer outfits")
	for _, want := range []string{"Title:", "Caption:", "Hashtags:", "summer outfits", "follow"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("instagram prompt missing %q: %s", want, prompt)
		}
	}
}

func TestBuildPromptBoth(t *testing.T) {
	prompt := BuildPrompt(PlatformBoth, "learn Go")
	for _, want := range []string{"YouTube Title", "Instagram Caption", "learn Go"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("combined prompt missing %q: %s", want, prompt)
		}
	}
}

func TestBuildPromptVerbatimTopic(t *testing.T) {
	topic := "  weird 'topic' <with> markup  "
	if !strings.Contains(BuildPrompt(PlatformYouTube, topic), topic) {
		t.Fatal("topic must be interpolated verbatim")
	}
}

func TestParsePlatform(t *testing.T) {
	cases := []struct {
		in   string
		want Platform
		ok   bool
	}{
		{"yt", PlatformYouTube, true},
		{"ig", PlatformInstagram, true},
		{"both", PlatformBoth, true},
		{" YT ", PlatformYouTube, true},
		{"tiktok", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePlatform(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePlatform(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
