package service

import (
	"context"
	"errors"
	"fmt"

	"lawsuitdraft-backend/docx"
	"lawsuitdraft-backend/models"
	"lawsuitdraft-backend/storage"
)

// ErrTemplateUnavailable means the placeholder template could not be
// fetched or is not a usable .docx. This is a deployment fault, never a
// user-input fault.
var ErrTemplateUnavailable = errors.New("document template is missing or unusable")

// GeneratedFilename is the attachment name for filled complaints.
const GeneratedFilename = "民事起诉状.docx"

// DocxContentType is the MIME type for .docx downloads.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocumentService fills the placeholder template with a session's record.
// The template is fetched from storage on every call so a template update
// takes effect without a restart.
type DocumentService struct {
	storage      storage.Storage
	templatePath string
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// WithDocumentStorage sets the backend holding the template asset
func WithDocumentStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// WithTemplatePath sets the template's storage path
func WithTemplatePath(path string) DocumentServiceOption {
	return func(s *DocumentService) {
		s.templatePath = path
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateRequest carries the record to fill into the template
type GenerateRequest struct {
	Lawsuit *models.Lawsuit
}

// GenerateResult is the filled document ready for download
type GenerateResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// Generate fills the template with the record's placeholder values.
func (s *DocumentService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if s.storage == nil {
		return nil, errors.New("document storage not set")
	}
	if s.templatePath == "" {
		return nil, fmt.Errorf("%w: no template path configured", ErrTemplateUnavailable)
	}
	if req.Lawsuit == nil {
		return nil, errors.New("no lawsuit record to fill")
	}

	template, err := storage.ReadAll(ctx, s.storage, s.templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	}

	content, err := docx.Fill(template, req.Lawsuit.Replacements())
	if err != nil {
		if errors.Is(err, docx.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
		}
		return nil, err
	}

	return &GenerateResult{
		Content:     content,
		Filename:    GeneratedFilename,
		ContentType: DocxContentType,
	}, nil
}
