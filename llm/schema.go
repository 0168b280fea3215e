package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildLawsuitJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. The same map is embedded in the prompt as format
// instructions and compiled locally to validate the model reply. Field
// descriptions are Chinese because the documents and the prompt are.
func BuildLawsuitJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"plaintiff": partySchema("原告信息"),
			"defendant": partySchema("被告信息"),
			"claims": map[string]any{
				"type":        "string",
				"description": "诉讼请求，保持原始的多点格式，作为一个单一的字符串",
			},
			"facts_and_reasons": map[string]any{
				"type":        "string",
				"description": "事实与理由的完整陈述",
			},
			"court_name": optionalString("提交的法院名称"),
			"date":       optionalString("起诉状的日期"),
		},
		"required": []string{"plaintiff", "defendant", "claims", "facts_and_reasons"},
	}
}

func partySchema(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			"name":      optionalString("姓名"),
			"gender":    optionalString("性别"),
			"ethnicity": optionalString("民族"),
			"dob":       optionalString("出生年月日"),
			"address":   optionalString("住址"),
			"id_card":   optionalString("公民身份证号码"),
			"contact":   optionalString("联系电话"),
		},
		"additionalProperties": false,
	}
}

func optionalString(description string) map[string]any {
	return map[string]any{
		"type":        []string{"string", "null"},
		"description": description,
	}
}

// FormatInstructions renders the schema as the indented JSON block pasted
// into the prompt.
func FormatInstructions(schemaMap map[string]any) string {
	b, err := json.MarshalIndent(schemaMap, "", "  ")
	if err != nil {
		// The schema is a static map of marshalable types.
		panic(fmt.Sprintf("marshal lawsuit schema: %v", err))
	}
	return string(b)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
