package models

import (
	"time"

	"github.com/google/uuid"
)

// Session owns the live record for one review interaction. It is created
// when an upload is extracted, holds the current Lawsuit between edits, and
// is discarded when the interaction ends. Sessions are never persisted.
type Session struct {
	ID             uuid.UUID `json:"id"`
	Lawsuit        *Lawsuit  `json:"lawsuit"`
	DocumentHash   string    `json:"document_hash"`
	SourceFilename string    `json:"source_filename"`
	StoragePath    string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
