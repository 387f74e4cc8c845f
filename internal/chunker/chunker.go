package chunker

import (
	"strings"

	apperrors "media-digest/internal/errors"
)

// Config holds word-budget thresholds for chunking
type Config struct {
	TargetWords   int
	MaxWords      int
	OverlapWords  int
	MinFinalWords int
	// FillerPatterns are regular expressions for tokens stripped before
	// word counting. Empty slice means DefaultFillerPatterns.
	FillerPatterns []string
}

// Validate rejects pathological threshold combinations
func (c Config) Validate() error {
	if c.TargetWords <= 0 {
		return apperrors.New(apperrors.CodeInvalidArg, "target words must be positive")
	}
	if c.MaxWords < c.TargetWords {
		return apperrors.New(apperrors.CodeInvalidArg, "max words must be >= target words")
	}
	if c.OverlapWords < 0 || c.OverlapWords >= c.TargetWords {
		return apperrors.New(apperrors.CodeInvalidArg, "overlap words must be in [0, target words)")
	}
	if c.MinFinalWords < 0 {
		return apperrors.New(apperrors.CodeInvalidArg, "min final words must not be negative")
	}
	return nil
}

// Fragment is one chunk of a transcript as produced by the chunker.
// WordCount excludes the OverlapWords leading words carried from the
// previous fragment, so fragment word counts sum to the word count of the
// normalized input.
type Fragment struct {
	Index         int
	Text          string
	WordCount     int
	SentenceCount int
	OverlapWords  int
}

// Chunker splits normalized transcript text into word-bounded fragments.
// It is deterministic and performs no I/O.
type Chunker struct {
	cfg     Config
	fillers []filler
}

// New creates a Chunker, validating the config and compiling the filler
// stoplist up front.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	patterns := cfg.FillerPatterns
	if len(patterns) == 0 {
		patterns = DefaultFillerPatterns()
	}
	fillers, err := compileFillers(patterns)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid filler pattern")
	}
	return &Chunker{cfg: cfg, fillers: fillers}, nil
}

// Chunk splits text into ordered fragments. Empty or whitespace-only text
// yields zero fragments. Valid non-empty input never fails.
func (c *Chunker) Chunk(text string) []Fragment {
	normalized := c.normalize(text)
	if normalized == "" {
		return nil
	}

	sentences := splitSentences(normalized)

	var fragments []Fragment
	var current []string // sentences of the working fragment, overlap excluded
	currentWords := 0

	// Leading context carried from the previous fragment. Stored in the
	// next fragment's text but excluded from its word count.
	overlapText := ""
	overlapWords := 0

	flush := func() {
		body := strings.Join(current, " ")
		stored := body
		if overlapText != "" {
			stored = overlapText + " " + body
		}
		fragments = append(fragments, Fragment{
			Index:         len(fragments),
			Text:          stored,
			WordCount:     currentWords,
			SentenceCount: len(current),
			OverlapWords:  overlapWords,
		})

		overlapText, overlapWords = tailWords(stored, c.cfg.OverlapWords)
		current = nil
		currentWords = 0
	}

	for _, sentence := range sentences {
		words := countWords(sentence)

		// A single sentence above the max bound is hard-split at word
		// boundaries; the only case where a fragment ends mid-sentence.
		if words > c.cfg.MaxWords {
			if len(current) > 0 {
				flush()
			}
			pieces := splitAtWordBoundary(sentence, c.cfg.MaxWords)
			for _, piece := range pieces[:len(pieces)-1] {
				current = []string{piece}
				currentWords = countWords(piece)
				flush()
			}
			last := pieces[len(pieces)-1]
			current = []string{last}
			currentWords = countWords(last)
			continue
		}

		wouldExceedMax := currentWords+words > c.cfg.MaxWords
		reachedTarget := currentWords >= c.cfg.TargetWords
		if len(current) > 0 && (wouldExceedMax || reachedTarget) {
			flush()
		}

		current = append(current, sentence)
		currentWords += words
	}

	if len(current) > 0 {
		if c.shouldMergeFinal(fragments, currentWords) {
			prev := &fragments[len(fragments)-1]
			prev.Text = prev.Text + " " + strings.Join(current, " ")
			prev.WordCount += currentWords
			prev.SentenceCount += len(current)
		} else {
			flush()
		}
	}

	return fragments
}

// shouldMergeFinal reports whether a trailing fragment smaller than the
// min-final threshold should be folded into the previous fragment. The
// merge is skipped when it would push the previous fragment past the max
// bound.
func (c *Chunker) shouldMergeFinal(fragments []Fragment, finalWords int) bool {
	if c.cfg.MinFinalWords <= 0 || finalWords >= c.cfg.MinFinalWords {
		return false
	}
	if len(fragments) == 0 {
		return false
	}
	prev := fragments[len(fragments)-1]
	return prev.WordCount+finalWords <= c.cfg.MaxWords
}

// tailWords returns the last n words of text and how many were taken
func tailWords(text string, n int) (string, int) {
	if n <= 0 {
		return "", 0
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " "), len(words)
	}
	tail := words[len(words)-n:]
	return strings.Join(tail, " "), n
}

// splitAtWordBoundary cuts text into pieces of at most maxWords words
func splitAtWordBoundary(text string, maxWords int) []string {
	words := strings.Fields(text)
	var pieces []string
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		pieces = append(pieces, strings.Join(words[start:end], " "))
	}
	return pieces
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
