package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"lawsuitdraft-backend/models"
)

// ExtractionCache memoizes successful extractions by content. A key covers
// the exact document text and the credential used, so re-uploading the same
// file skips the model call while a different file or key never collides.
// Failures are never cached.
type ExtractionCache struct {
	mu      sync.RWMutex
	entries map[string]*models.Lawsuit
}

// NewExtractionCache creates an empty cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{entries: make(map[string]*models.Lawsuit)}
}

// CacheKey derives the cache key for a (document text, credential) pair.
func CacheKey(documentText, credential string) string {
	doc := sha256.Sum256([]byte(documentText))
	cred := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(doc[:]) + ":" + hex.EncodeToString(cred[:])
}

// Get returns a copy of the cached record for key, if any.
func (c *ExtractionCache) Get(key string) (*models.Lawsuit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

// Put stores a copy of the record under key.
func (c *ExtractionCache) Put(key string, l *models.Lawsuit) {
	cp := *l
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cp
}

// CachedExtractor wraps a FieldExtractor with an ExtractionCache. The
// credential participates in the key but is otherwise unused here; the
// inner extractor owns authentication.
type CachedExtractor struct {
	inner      FieldExtractor
	cache      *ExtractionCache
	credential string
}

// NewCachedExtractor composes an extractor with a cache. The cache may be
// shared across CachedExtractor instances with different credentials.
func NewCachedExtractor(inner FieldExtractor, cache *ExtractionCache, credential string) *CachedExtractor {
	return &CachedExtractor{inner: inner, cache: cache, credential: credential}
}

// Extract implements FieldExtractor.
func (e *CachedExtractor) Extract(ctx context.Context, documentText string) (*models.Lawsuit, error) {
	key := CacheKey(documentText, e.credential)
	if l, ok := e.cache.Get(key); ok {
		return l, nil
	}
	l, err := e.inner.Extract(ctx, documentText)
	if err != nil {
		return nil, err
	}
	e.cache.Put(key, l)
	return l, nil
}
