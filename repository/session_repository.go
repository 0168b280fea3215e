// Package repository holds the session store. Sessions are review state
// only, so the store is an in-process map: nothing survives a restart and
// nothing is shared between instances.
package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"lawsuitdraft-backend/models"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or already-deleted sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores live review sessions in memory.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

// NewSessionRepository creates an empty session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uuid.UUID]*models.Session)}
}

// Create stores a new session, assigning its ID and timestamps.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

// UpdateLawsuit swaps a session's record and bumps UpdatedAt.
func (r *SessionRepository) UpdateLawsuit(ctx context.Context, id uuid.UUID, lawsuit *models.Lawsuit) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Lawsuit = lawsuit
	session.UpdatedAt = time.Now().UTC()
	cp := *session
	return &cp, nil
}

// UpdateStoragePath records where the session's upload was staged.
func (r *SessionRepository) UpdateStoragePath(ctx context.Context, id uuid.UUID, storagePath string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.StoragePath = storagePath
	cp := *session
	return &cp, nil
}

// Delete removes a session. Deleting an unknown session is an error so the
// handler can distinguish a double delete.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
