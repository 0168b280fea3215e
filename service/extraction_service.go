package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"

	"lawsuitdraft-backend/docx"
	"lawsuitdraft-backend/llm"
	"lawsuitdraft-backend/models"
)

// ErrMissingAPIKey means no credential was supplied with the request and
// none is configured; the model is never called in that state.
var ErrMissingAPIKey = errors.New("no API key provided or configured")

// ExtractorFactory builds a FieldExtractor for one request. apiKey is the
// per-request override and may be empty; the factory resolves the effective
// credential and returns it so caching can key on it. It returns
// ErrMissingAPIKey when no credential can be resolved.
type ExtractorFactory func(apiKey string) (extractor llm.FieldExtractor, credential string, err error)

// ExtractionService runs the upload-to-record pipeline: linearize the
// document, then obtain a validated Lawsuit through the (cached) extractor.
type ExtractionService struct {
	factory ExtractorFactory
	cache   *llm.ExtractionCache
}

// ExtractionServiceOption is a functional option for ExtractionService
type ExtractionServiceOption func(*ExtractionService)

// WithExtractorFactory sets the per-request extractor factory
func WithExtractorFactory(factory ExtractorFactory) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.factory = factory
	}
}

// WithExtractionCache sets the shared extraction cache
func WithExtractionCache(cache *llm.ExtractionCache) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.cache = cache
	}
}

// NewExtractionService creates a new extraction service
func NewExtractionService(opts ...ExtractionServiceOption) *ExtractionService {
	s := &ExtractionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractRequest carries one uploaded document through extraction
type ExtractRequest struct {
	Document []byte
	Filename string
	APIKey   string // optional per-request override
}

// ExtractResult is the validated record plus the document identity used to
// seed the session
type ExtractResult struct {
	Lawsuit      *models.Lawsuit
	DocumentText string
	DocumentHash string
}

// Extract linearizes the document and invokes the model once. Unsupported
// input surfaces as docx.ErrUnsupportedFormat; model-side failures surface
// as *llm.ExtractionError.
func (s *ExtractionService) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if s.factory == nil {
		return nil, errors.New("extractor factory not set")
	}

	text, err := docx.ExtractText(req.Document)
	if err != nil {
		return nil, err
	}

	extractor, credential, err := s.factory(req.APIKey)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		extractor = llm.NewCachedExtractor(extractor, s.cache, credential)
	}

	lawsuit, err := extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(req.Document)
	log.Printf("extraction: %q ok, %d chars of text", req.Filename, len(text))
	return &ExtractResult{
		Lawsuit:      lawsuit,
		DocumentText: text,
		DocumentHash: hex.EncodeToString(hash[:]),
	}, nil
}
