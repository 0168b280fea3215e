// Package handlers is the HTTP layer: gin handlers speaking the
// {success, data|error{code,message}} envelope.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lawsuitdraft-backend/docx"
	"lawsuitdraft-backend/llm"
	"lawsuitdraft-backend/models"
	"lawsuitdraft-backend/repository"
	"lawsuitdraft-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// SessionHandler handles HTTP requests for review sessions
type SessionHandler struct {
	sessions      *service.SessionService
	documents     *service.DocumentService
	maxUploadSize int64
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, documents *service.DocumentService, maxUploadSize int64) *SessionHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024 // 10MB
	}
	return &SessionHandler{
		sessions:      sessions,
		documents:     documents,
		maxUploadSize: maxUploadSize,
	}
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxUploadSize),
			},
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	hasDocxName := strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".docx")
	if !hasDocxName && mimeType != docxMimeType {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNSUPPORTED_FORMAT",
				"message": "Only .docx files are supported; save .doc files as .docx and retry",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	document, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	if int64(len(document)) > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxUploadSize),
			},
		})
		return
	}

	result, err := h.sessions.CreateSession(c.Request.Context(), service.CreateSessionRequest{
		Filename: fileHeader.Filename,
		Document: document,
		APIKey:   c.PostForm("api_key"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    sessionPayload(result.Session),
	})
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	result, err := h.sessions.GetSession(c.Request.Context(), service.GetSessionRequest{ID: id})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessionPayload(result.Session),
	})
}

// UpdateFields handles PUT /api/sessions/:id/fields
func (h *SessionHandler) UpdateFields(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var body struct {
		Fields map[string]string `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.sessions.ApplyEdits(c.Request.Context(), service.ApplyEditsRequest{
		ID:     id,
		Fields: body.Fields,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessionPayload(result.Session),
	})
}

// GenerateDocument handles POST /api/sessions/:id/document
func (h *SessionHandler) GenerateDocument(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), service.GetSessionRequest{ID: id})
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.documents.Generate(c.Request.Context(), service.GenerateRequest{
		Lawsuit: session.Session.Lawsuit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.DataFromReader(http.StatusOK, int64(len(result.Content)), result.ContentType, bytes.NewReader(result.Content), nil)
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(c.Request.Context(), service.DeleteSessionRequest{ID: id}); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": id},
	})
}

// sessionID parses the :id path parameter, answering the request itself on
// failure.
func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION_ID",
				"message": "Invalid session ID format",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to stable codes. Extraction failures
// keep their reason in the message so the UI can explain without parsing.
func (h *SessionHandler) respondError(c *gin.Context, err error) {
	var xerr *llm.ExtractionError
	switch {
	case errors.Is(err, docx.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNSUPPORTED_FORMAT",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrMissingAPIKey):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_API_KEY",
				"message": "Provide an api_key field or configure a server-side key",
			},
		})
	case errors.Is(err, service.ErrInvalidFieldSet):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FIELD_SET",
				"message": err.Error(),
			},
		})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "Session not found",
			},
		})
	case errors.Is(err, service.ErrTemplateUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TEMPLATE_ERROR",
				"message": err.Error(),
			},
		})
	case errors.As(err, &xerr):
		status := http.StatusBadGateway
		if xerr.Reason == llm.ReasonCredentials {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EXTRACTION_FAILED",
				"message": xerr.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": err.Error(),
			},
		})
	}
}

// sessionPayload shapes a session for JSON responses. The flattened fields
// map mirrors the record so a review form can pre-populate directly.
func sessionPayload(s *models.Session) gin.H {
	return gin.H{
		"id":              s.ID,
		"lawsuit":         s.Lawsuit,
		"fields":          s.Lawsuit.Fields(),
		"document_hash":   s.DocumentHash,
		"source_filename": s.SourceFilename,
		"created_at":      s.CreatedAt,
		"updated_at":      s.UpdatedAt,
	}
}
