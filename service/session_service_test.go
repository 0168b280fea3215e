package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"lawsuitdraft-backend/docx"
	"lawsuitdraft-backend/llm"
	"lawsuitdraft-backend/models"
	"lawsuitdraft-backend/repository"
	"lawsuitdraft-backend/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDocx assembles a minimal .docx with one paragraph per line.
func buildDocx(t *testing.T, lines ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, line := range lines {
		body.WriteString(`<w:p><w:r><w:t>` + line + `</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// stubExtractor returns a fixed record or error without any model call.
type stubExtractor struct {
	lawsuit *models.Lawsuit
	err     error
	lastDoc string
}

func (s *stubExtractor) Extract(ctx context.Context, documentText string) (*models.Lawsuit, error) {
	s.lastDoc = documentText
	if s.err != nil {
		return nil, s.err
	}
	return s.lawsuit, nil
}

func stubFactory(stub *stubExtractor) ExtractorFactory {
	return func(apiKey string) (llm.FieldExtractor, string, error) {
		return stub, apiKey, nil
	}
}

func sampleLawsuit() *models.Lawsuit {
	name := "张三"
	return &models.Lawsuit{
		Plaintiff:       models.PartyInfo{Name: &name},
		Claims:          "1. 判令被告偿还借款本金10万元。",
		FactsAndReasons: "2023年1月，被告向原告借款10万元，至今未还。",
	}
}

func newSessionService(t *testing.T, stub *stubExtractor) (*SessionService, *repository.SessionRepository) {
	t.Helper()
	repo := repository.NewSessionRepository()
	extraction := NewExtractionService(
		WithExtractorFactory(stubFactory(stub)),
		WithExtractionCache(llm.NewExtractionCache()),
	)
	svc := NewSessionService(
		WithSessionRepository(repo),
		WithExtractionService(extraction),
	)
	return svc, repo
}

func TestCreateSessionExtractsAndStores(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, repo := newSessionService(t, stub)

	doc := buildDocx(t, "民事起诉状", "原告：张三")
	result, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: doc,
	})
	require.NoError(t, err)

	session := result.Session
	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, "起诉状.docx", session.SourceFilename)
	assert.NotEmpty(t, session.DocumentHash)
	assert.Equal(t, "张三", *session.Lawsuit.Plaintiff.Name)
	assert.Equal(t, "民事起诉状\n原告：张三", stub.lastDoc)

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.DocumentHash, stored.DocumentHash)
}

func TestCreateSessionRejectsUnsupportedFormat(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, _ := newSessionService(t, stub)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.doc",
		Document: []byte("legacy binary format"),
	})
	assert.ErrorIs(t, err, docx.ErrUnsupportedFormat)
}

func TestCreateSessionRefusesWithoutCredential(t *testing.T) {
	repo := repository.NewSessionRepository()
	extraction := NewExtractionService(WithExtractorFactory(
		func(apiKey string) (llm.FieldExtractor, string, error) {
			if apiKey == "" {
				return nil, "", ErrMissingAPIKey
			}
			return &stubExtractor{lawsuit: sampleLawsuit()}, apiKey, nil
		},
	))
	svc := NewSessionService(
		WithSessionRepository(repo),
		WithExtractionService(extraction),
	)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCreateSessionPropagatesExtractionFailure(t *testing.T) {
	stub := &stubExtractor{err: &llm.ExtractionError{Reason: llm.ReasonBackend, Message: "upstream error"}}
	svc, _ := newSessionService(t, stub)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})

	var xerr *llm.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, llm.ReasonBackend, xerr.Reason)
}

func TestCreateSessionStagesUpload(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	repo := repository.NewSessionRepository()
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	svc := NewSessionService(
		WithSessionRepository(repo),
		WithExtractionService(NewExtractionService(WithExtractorFactory(stubFactory(stub)))),
		WithSessionStorage(local),
	)

	result, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Session.StoragePath)

	staged, err := storage.ReadAll(context.Background(), local, result.Session.StoragePath)
	require.NoError(t, err)
	assert.NotEmpty(t, staged)

	// The staged copy is removed with the session.
	require.NoError(t, svc.DeleteSession(context.Background(), DeleteSessionRequest{ID: result.Session.ID}))
	_, err = storage.ReadAll(context.Background(), local, result.Session.StoragePath)
	assert.Error(t, err)
}

func TestApplyEditsReplacesWholeRecord(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, _ := newSessionService(t, stub)

	created, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})
	require.NoError(t, err)

	fields := created.Session.Lawsuit.Fields()
	fields["plaintiff.name"] = "王五"
	fields["court_name"] = "上海市浦东新区人民法院"

	updated, err := svc.ApplyEdits(context.Background(), ApplyEditsRequest{
		ID:     created.Session.ID,
		Fields: fields,
	})
	require.NoError(t, err)
	assert.Equal(t, "王五", *updated.Session.Lawsuit.Plaintiff.Name)
	assert.Equal(t, "上海市浦东新区人民法院", *updated.Session.Lawsuit.CourtName)
	// Values not edited still come from the submitted set.
	assert.Equal(t, created.Session.Lawsuit.Claims, updated.Session.Lawsuit.Claims)
}

func TestApplyEditsRejectsPartialFieldSet(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, _ := newSessionService(t, stub)

	created, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})
	require.NoError(t, err)

	_, err = svc.ApplyEdits(context.Background(), ApplyEditsRequest{
		ID:     created.Session.ID,
		Fields: map[string]string{"plaintiff.name": "王五"},
	})
	assert.ErrorIs(t, err, ErrInvalidFieldSet)
}

func TestApplyEditsUnknownSession(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, _ := newSessionService(t, stub)

	_, err := svc.ApplyEdits(context.Background(), ApplyEditsRequest{
		ID:     uuid.New(),
		Fields: sampleLawsuit().Fields(),
	})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestDeleteSessionDiscardsState(t *testing.T) {
	stub := &stubExtractor{lawsuit: sampleLawsuit()}
	svc, repo := newSessionService(t, stub)

	created, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		Filename: "起诉状.docx",
		Document: buildDocx(t, "民事起诉状"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(context.Background(), DeleteSessionRequest{ID: created.Session.ID}))

	_, err = repo.GetByID(context.Background(), created.Session.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t,
		svc.DeleteSession(context.Background(), DeleteSessionRequest{ID: created.Session.ID}),
		repository.ErrSessionNotFound)
}
