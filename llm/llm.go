// Package llm turns linearized complaint text into a structured Lawsuit
// record through a single schema-constrained chat completion. One JSON
// Schema is the contract in both directions: it rides in the prompt as
// format instructions and validates the reply before anything is decoded.
package llm

import (
	"context"

	"lawsuitdraft-backend/models"
)

// CompletionRequest is one non-streaming chat turn. Extraction always runs
// with temperature 0; the field exists so tests can assert it is passed
// through.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
}

// ChatModel is the provider seam. Implementations return the raw text of
// the model reply, or an *ExtractionError classifying what went wrong.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// FieldExtractor produces a validated Lawsuit from linearized document text.
// There is no partial success: the returned record is either complete per
// the schema or the error is an *ExtractionError.
type FieldExtractor interface {
	Extract(ctx context.Context, documentText string) (*models.Lawsuit, error)
}
