package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/service/common"
)

// youtubeExtractor fetches subtitles via yt-dlp
type youtubeExtractor struct {
	cmdRunner common.CmdRunner
	language  string
}

// NewYouTubeExtractor creates an Extractor that downloads YouTube subtitles
// with yt-dlp and converts them to plain text.
func NewYouTubeExtractor(cmdRunner common.CmdRunner, language string) Extractor {
	if language == "" {
		language = "en"
	}
	return &youtubeExtractor{
		cmdRunner: cmdRunner,
		language:  language,
	}
}

// Extract downloads subtitles for a video and returns cleaned plain text.
// locator is a YouTube video ID or watch URL.
func (e *youtubeExtractor) Extract(ctx context.Context, locator, language string) (*Transcript, error) {
	if language == "" {
		language = e.language
	}

	outputDir, err := os.MkdirTemp("", "mediadigest-subs-*")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create subtitle directory")
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		"--write-auto-sub",
		"--write-sub",
		"--sub-lang", language,
		"--skip-download",
		"--sub-format", "srt",
		"--convert-subs", "srt",
		"-o", filepath.Join(outputDir, "%(id)s.%(ext)s"),
		watchURL(locator),
	}

	if _, err := e.cmdRunner.Run(ctx, "yt-dlp", args...); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "yt-dlp execution failed")
	}

	srtFiles, err := filepath.Glob(filepath.Join(outputDir, "*.srt"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list subtitle files")
	}
	if len(srtFiles) == 0 {
		// yt-dlp succeeded but produced nothing: the video has no subtitles
		return nil, apperrors.New(apperrors.CodeNoTranscript, "no transcript available for "+locator)
	}

	data, err := os.ReadFile(srtFiles[0])
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to read subtitle file")
	}

	text := CleanSRT(string(data))
	if text == "" {
		return nil, apperrors.New(apperrors.CodeNoTranscript, "transcript is empty for "+locator)
	}

	return &Transcript{Text: text, Language: language}, nil
}

// watchURL accepts either a bare video id or a full URL
func watchURL(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	return "https://www.youtube.com/watch?v=" + locator
}
