package chunker

import (
	"regexp"
	"strings"
)

// filler is a compiled stoplist entry
type filler struct {
	re *regexp.Regexp
}

// DefaultFillerPatterns returns the stoplist of verbal fillers and hedges
// stripped before word counting. Patterns are matched case-insensitively.
func DefaultFillerPatterns() []string {
	return []string{
		// Verbal fillers
		`\buh+\b`, `\bum+\b`, `\buhm+\b`, `\bah+\b`, `\beh+\b`,
		`\ber+\b`, `\bhmm+\b`,

		// Discourse markers
		`\byou know\b`, `\bI mean\b`, `\bkind of\b`, `\bsort of\b`,

		// Unnecessary qualifiers
		`\bbasically\b`, `\bactually\b`, `\bliterally\b`,
		`\bpretty much\b`, `\bmore or less\b`,

		// Redundant phrases
		`\bat the end of the day\b`, `\bto be honest\b`,
		`\bto tell you the truth\b`, `\bif you will\b`, `\bso to speak\b`,

		// Thinking indicators
		`\blet me see\b`, `\blet's see\b`,
	}
}

// censorMark is the marker YouTube substitutes for filtered words
var censorMark = regexp.MustCompile(`\[ __ \] *`)

func compileFillers(patterns []string) ([]filler, error) {
	fillers := make([]filler, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, err
		}
		fillers = append(fillers, filler{re: re})
	}
	return fillers, nil
}

// normalize strips stoplisted fillers, censor marks, and stuttered word
// repetitions, then collapses whitespace. Sentence boundary punctuation is
// left untouched.
func (c *Chunker) normalize(text string) string {
	for _, f := range c.fillers {
		text = f.re.ReplaceAllString(text, " ")
	}
	text = censorMark.ReplaceAllString(text, "")
	text = collapseRepeats(text)
	return strings.Join(strings.Fields(text), " ")
}

// collapseRepeats drops consecutive duplicate words (stuttering), keeping
// the first occurrence. Comparison ignores case; punctuation attached to a
// word makes it distinct so sentence boundaries survive.
func collapseRepeats(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	out := make([]string, 0, len(words))
	out = append(out, words[0])
	for _, w := range words[1:] {
		if strings.EqualFold(w, out[len(out)-1]) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// sentenceEnd matches a run of text up to and including boundary punctuation
var sentenceEnd = regexp.MustCompile(`[^.!?。]*[.!?。]+`)

// boundaryPunct reports whether text carries any sentence boundary punctuation
var boundaryPunct = regexp.MustCompile(`[.!?。]`)

// pseudoSentenceWords is the fixed segment width used when the text has no
// boundary punctuation at all, which is common for auto-generated subtitles.
const pseudoSentenceWords = 40

// splitSentences splits normalized text into an ordered list of sentences.
// Texts without boundary punctuation fall back to fixed-width word segments.
func splitSentences(text string) []string {
	if !boundaryPunct.MatchString(text) {
		return splitAtWordBoundary(text, pseudoSentenceWords)
	}

	var sentences []string
	consumed := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		consumed = loc[1]
	}
	// Trailing text without a terminator is still a sentence
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
