package model

import "time"

// ContentKind distinguishes transcript sources
type ContentKind string

const (
	ContentKindVideo ContentKind = "video"
	ContentKindBook  ContentKind = "book"
)

// Content represents an ingestible item (a YouTube video or a book-like document)
type Content struct {
	ID        string      `json:"id" db:"id"`
	Kind      ContentKind `json:"kind" db:"kind"`
	Title     string      `json:"title" db:"title"`
	SourceURL string      `json:"source_url" db:"source_url"`
	Language  string      `json:"language" db:"language"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
