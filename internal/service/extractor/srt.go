package extractor

import (
	"regexp"
	"strings"
)

var (
	// 00:00:01,000 --> 00:00:04,000 with optional leading counter line
	srtTimestamp = regexp.MustCompile(`\d+\n\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}\n`)
	srtCounter   = regexp.MustCompile(`(?m)^\d+$`)
	srtSpeaker   = regexp.MustCompile(`>>\s*`)
)

// CleanSRT strips SRT structure (timestamps, sequence counters, speaker
// markers) and returns whitespace-normalized plain text.
func CleanSRT(content string) string {
	text := srtTimestamp.ReplaceAllString(content, "")
	text = srtCounter.ReplaceAllString(text, "")
	text = srtSpeaker.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
