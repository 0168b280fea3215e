// Package storage abstracts where document assets live: the placeholder
// template the filler reads, and staged copies of uploaded complaints kept
// for the lifetime of their session. Backends are the local filesystem and
// S3; session state itself is never stored here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is the backend seam for document assets.
type Storage interface {
	// Stage stores an uploaded document under its session and returns the
	// storage path.
	Stage(ctx context.Context, sessionID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves an object by storage path.
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an object by storage path.
	Delete(ctx context.Context, storagePath string) error
}

// Type selects the storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds backend configuration.
type Config struct {
	Type         Type
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage backend from explicit configuration.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocal(cfg.LocalPath)
	case TypeS3:
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewFromEnv creates a storage backend from STORAGE_TYPE and its
// backend-specific variables. Local is the development default.
func NewFromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = string(TypeLocal)
	}

	switch Type(storageType) {
	case TypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/files"
		}
		return NewLocal(localPath)

	case TypeS3:
		cfg := Config{
			Type:         TypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// ReadAll downloads an object fully into memory. Templates and uploads are
// small documents, so whole-object reads are the normal access pattern.
func ReadAll(ctx context.Context, s Storage, storagePath string) ([]byte, error) {
	rc, err := s.Download(ctx, storagePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// stagePath builds the object key for a staged upload: sharded by the
// session ID prefix, unique per session, with a sanitized original name
// kept for operator legibility.
func stagePath(sessionID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	for _, ch := range []string{" ", "/", "\\"} {
		base = strings.ReplaceAll(base, ch, "_")
	}
	return fmt.Sprintf("%s/%s_%s%s", sessionID.String()[:2], sessionID.String(), base, ext)
}
