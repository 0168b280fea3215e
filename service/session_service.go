package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"lawsuitdraft-backend/models"
	"lawsuitdraft-backend/repository"
	"lawsuitdraft-backend/storage"

	"github.com/google/uuid"
)

// ErrInvalidFieldSet means a field submission did not cover the complete
// set of editable paths, or named a path that does not exist.
var ErrInvalidFieldSet = errors.New("invalid field set")

// SessionService owns the review lifecycle: create a session from an
// upload, expose its record, apply full-field edits, discard it.
type SessionService struct {
	repo       *repository.SessionRepository
	extraction *ExtractionService
	storage    storage.Storage
}

// SessionServiceOption is a functional option for SessionService
type SessionServiceOption func(*SessionService)

// WithSessionRepository sets the session repository
func WithSessionRepository(repo *repository.SessionRepository) SessionServiceOption {
	return func(s *SessionService) {
		s.repo = repo
	}
}

// WithExtractionService sets the extraction service
func WithExtractionService(extraction *ExtractionService) SessionServiceOption {
	return func(s *SessionService) {
		s.extraction = extraction
	}
}

// WithSessionStorage sets the backend used to stage uploaded documents
func WithSessionStorage(st storage.Storage) SessionServiceOption {
	return func(s *SessionService) {
		s.storage = st
	}
}

// NewSessionService creates a new session service
func NewSessionService(opts ...SessionServiceOption) *SessionService {
	s := &SessionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSessionRequest represents an upload starting a review session
type CreateSessionRequest struct {
	Filename string
	Document []byte
	APIKey   string
}

// CreateSessionResult represents the created session
type CreateSessionResult struct {
	Session *models.Session
}

// CreateSession extracts the uploaded complaint and opens a session around
// the resulting record. The original upload is staged in storage for the
// session's lifetime.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	if s.repo == nil {
		return nil, errors.New("session repository not set")
	}
	if s.extraction == nil {
		return nil, errors.New("extraction service not set")
	}

	extracted, err := s.extraction.Extract(ctx, ExtractRequest{
		Document: req.Document,
		Filename: req.Filename,
		APIKey:   req.APIKey,
	})
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Lawsuit:        extracted.Lawsuit,
		DocumentHash:   extracted.DocumentHash,
		SourceFilename: req.Filename,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.storage != nil {
		path, err := s.storage.Stage(ctx, session.ID, req.Filename, bytes.NewReader(req.Document))
		if err != nil {
			// Staging is a convenience copy; the session stays usable.
			log.Printf("session %s: stage upload failed: %v", session.ID, err)
		} else {
			session.StoragePath = path
			if _, err := s.repo.UpdateStoragePath(ctx, session.ID, path); err != nil {
				log.Printf("session %s: record storage path: %v", session.ID, err)
			}
		}
	}

	return &CreateSessionResult{Session: session}, nil
}

// GetSessionRequest identifies a session
type GetSessionRequest struct {
	ID uuid.UUID
}

// GetSessionResult represents the current session state
type GetSessionResult struct {
	Session *models.Session
}

// GetSession returns the session's current record.
func (s *SessionService) GetSession(ctx context.Context, req GetSessionRequest) (*GetSessionResult, error) {
	if s.repo == nil {
		return nil, errors.New("session repository not set")
	}
	session, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &GetSessionResult{Session: session}, nil
}

// ApplyEditsRequest submits the complete edited field set for a session
type ApplyEditsRequest struct {
	ID     uuid.UUID
	Fields map[string]string
}

// ApplyEditsResult represents the session after the edit
type ApplyEditsResult struct {
	Session *models.Session
}

// ApplyEdits replaces the session's record with one built from the
// submitted fields. Every editable path must be present; there is no
// partial merge.
func (s *SessionService) ApplyEdits(ctx context.Context, req ApplyEditsRequest) (*ApplyEditsResult, error) {
	if s.repo == nil {
		return nil, errors.New("session repository not set")
	}

	lawsuit, err := models.LawsuitFromFields(req.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFieldSet, err)
	}

	session, err := s.repo.UpdateLawsuit(ctx, req.ID, lawsuit)
	if err != nil {
		return nil, err
	}
	return &ApplyEditsResult{Session: session}, nil
}

// DeleteSessionRequest identifies a session to discard
type DeleteSessionRequest struct {
	ID uuid.UUID
}

// DeleteSession discards the session and its staged upload.
func (s *SessionService) DeleteSession(ctx context.Context, req DeleteSessionRequest) error {
	if s.repo == nil {
		return errors.New("session repository not set")
	}

	session, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return err
	}

	if s.storage != nil && session.StoragePath != "" {
		if err := s.storage.Delete(ctx, session.StoragePath); err != nil {
			log.Printf("session %s: delete staged upload: %v", req.ID, err)
		}
	}
	return nil
}
