package llm

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"lawsuitdraft-backend/models"
)

// Extractor runs the one-shot extraction flow: prompt, completion at
// temperature 0, fence stripping, schema validation, decode.
type Extractor struct {
	model ChatModel
}

// NewExtractor creates an extractor over the given chat model.
func NewExtractor(model ChatModel) *Extractor {
	return &Extractor{model: model}
}

// Extract implements FieldExtractor.
func (e *Extractor) Extract(ctx context.Context, documentText string) (*models.Lawsuit, error) {
	schema := BuildLawsuitJSONSchema()
	req := CompletionRequest{
		System:      BuildSystemPrompt(),
		User:        BuildUserPrompt(documentText, FormatInstructions(schema)),
		Temperature: 0,
	}

	start := time.Now()
	reply, err := e.model.Complete(ctx, req)
	if err != nil {
		if xerr, ok := err.(*ExtractionError); ok {
			return nil, xerr
		}
		return nil, failf(ReasonBackend, err, "model completion failed")
	}
	log.Printf("llm: completion ok, %d chars in %s", len(reply), time.Since(start).Round(time.Millisecond))

	lawsuit, err := ParseLawsuit(schema, reply)
	if err != nil {
		return nil, err
	}
	return lawsuit, nil
}

// ParseLawsuit turns a raw model reply into a validated record. The reply
// is stripped of markdown fences, validated against the schema, then
// decoded. A reply that fails any step yields no record at all.
func ParseLawsuit(schemaMap map[string]any, reply string) (*models.Lawsuit, error) {
	raw := []byte(extractJSON(reply))
	if len(raw) == 0 {
		return nil, failf(ReasonDecode, nil, "reply contains no JSON object")
	}
	if !json.Valid(raw) {
		return nil, failf(ReasonDecode, nil, "reply is not valid JSON")
	}
	if err := ValidateJSONAgainstSchema(schemaMap, raw); err != nil {
		return nil, failf(ReasonSchema, err, "reply violates the lawsuit schema")
	}
	var lawsuit models.Lawsuit
	if err := json.Unmarshal(raw, &lawsuit); err != nil {
		return nil, failf(ReasonDecode, err, "decode validated reply")
	}
	return &lawsuit, nil
}

// extractJSON isolates the JSON object in a reply. Markdown fences are
// stripped first; failing that, the span from the first '{' to the last '}'
// is taken, which tolerates models that preface the object with prose.
func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s)
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last < first {
		return ""
	}
	return s[first : last+1]
}
