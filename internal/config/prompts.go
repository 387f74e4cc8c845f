package config

// Default prompt templates for chunk enrichment. Each template is rendered
// with text/template and receives {{.ChunkText}}. Overridable per field via
// the prompts section of the config file.

const promptTitle = `Create a concise title (max 10 words) that captures the main topic of this segment.

Segment text:
{{.ChunkText}}

Generate only the title, no additional text.`

const promptSummary = `Provide a high-level summary (2-3 sentences) of this segment.

Segment text:
{{.ChunkText}}

Focus on the main ideas and key takeaways.`

const promptKeyPoints = `List the key points discussed in this segment as bullet points.

Segment text:
{{.ChunkText}}

Provide 3-5 bullet points, each focusing on a distinct idea or fact mentioned.`

const promptTopics = `Identify the main topics or themes covered in this segment.

Segment text:
{{.ChunkText}}

Provide a comma-separated list of 3-5 topics or themes.`

// DefaultPrompts returns the built-in prompt templates keyed by field name
func DefaultPrompts() map[string]string {
	return map[string]string{
		"title":      promptTitle,
		"summary":    promptSummary,
		"key_points": promptKeyPoints,
		"topics":     promptTopics,
	}
}

// PromptFor returns the configured template for a field, falling back to
// the built-in default.
func (c *Config) PromptFor(field string) string {
	if tmpl, ok := c.Prompts[field]; ok && tmpl != "" {
		return tmpl
	}
	return DefaultPrompts()[field]
}
