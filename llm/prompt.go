package llm

import "strings"

// BuildSystemPrompt fixes the assistant's role and the output contract. The
// wording stays Chinese end to end because the complaints are.
func BuildSystemPrompt() string {
	return "你是一个专业的法律文书助手。请从起诉状文本中提取所有关键信息。" +
		"请严格按照JSON格式指令输出结果，只返回JSON，不要输出任何其他内容。" +
		"如果某些信息在文本中不存在，请将其值留空(null)。"
}

// BuildUserPrompt packages the literal document text followed by the
// schema-derived format instructions.
func BuildUserPrompt(documentText, formatInstructions string) string {
	var b strings.Builder
	b.WriteString("文本内容:\n")
	b.WriteString(documentText)
	b.WriteString("\n\n格式指令:\n")
	b.WriteString(formatInstructions)
	return b.String()
}
