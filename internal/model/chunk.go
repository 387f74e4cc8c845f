package model

import "time"

// Field identifies one AI-derived field of a chunk.
// The persistence column names are mapped at the repository boundary only.
type Field int

const (
	FieldTitle Field = iota
	FieldSummary
	FieldKeyPoints
	FieldTopics
)

// AllFields lists every enrichable field in a stable order
var AllFields = []Field{FieldTitle, FieldSummary, FieldKeyPoints, FieldTopics}

// ColumnName returns the chunk column storing this field's value
func (f Field) ColumnName() string {
	switch f {
	case FieldTitle:
		return "short_title"
	case FieldSummary:
		return "ai_field_1"
	case FieldKeyPoints:
		return "ai_field_2"
	case FieldTopics:
		return "ai_field_3"
	default:
		return ""
	}
}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldSummary:
		return "summary"
	case FieldKeyPoints:
		return "key_points"
	case FieldTopics:
		return "topics"
	default:
		return "unknown"
	}
}

// ParseField maps an API/persistence field name back to the enum
func ParseField(name string) (Field, bool) {
	switch name {
	case "title", "short_title":
		return FieldTitle, true
	case "summary", "ai_field_1":
		return FieldSummary, true
	case "key_points", "ai_field_2":
		return FieldKeyPoints, true
	case "topics", "ai_field_3":
		return FieldTopics, true
	default:
		return 0, false
	}
}

// FieldValue is one AI-derived field of a chunk together with its edit state
type FieldValue struct {
	Value          *string    `json:"value"`
	GeneratedAt    *time.Time `json:"generated_at"`
	ManuallyEdited bool       `json:"manually_edited"`
}

// Chunk is a bounded, ordered fragment of a transcript.
// (ContentID, ChunkIndex) is the compound key; indices are dense and zero-based.
// WordCount excludes the OverlapWords leading words carried from the previous
// chunk, so word counts sum to the filtered transcript word count.
type Chunk struct {
	ContentID     string               `json:"content_id" db:"content_id"`
	ChunkIndex    int                  `json:"chunk_index" db:"chunk_index"`
	Text          string               `json:"text" db:"text"`
	WordCount     int                  `json:"word_count" db:"word_count"`
	SentenceCount int                  `json:"sentence_count" db:"sentence_count"`
	OverlapWords  int                  `json:"overlap_words" db:"overlap_words"`
	Fields        map[Field]FieldValue `json:"fields"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// ChunkDraft is a chunk as produced by the chunker, before persistence
type ChunkDraft struct {
	ChunkIndex    int    `json:"chunk_index"`
	Text          string `json:"text"`
	WordCount     int    `json:"word_count"`
	SentenceCount int    `json:"sentence_count"`
	OverlapWords  int    `json:"overlap_words"`
}
