package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatModel records the request and returns a canned reply.
type fakeChatModel struct {
	reply   string
	err     error
	lastReq CompletionRequest
	calls   int
}

func (f *fakeChatModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestExtractWellFormedReply(t *testing.T) {
	model := &fakeChatModel{reply: wellFormedReply}
	extractor := NewExtractor(model)

	lawsuit, err := extractor.Extract(context.Background(), "起诉状全文")
	require.NoError(t, err)

	require.NotNil(t, lawsuit.Plaintiff.Name)
	assert.Equal(t, "张三", *lawsuit.Plaintiff.Name)
	assert.Nil(t, lawsuit.Plaintiff.Ethnicity, "JSON null maps to unknown")
	assert.Equal(t, "1. 判令被告偿还借款本金10万元。", lawsuit.Claims)
	require.NotNil(t, lawsuit.CourtName)
	assert.Equal(t, "北京市朝阳区人民法院", *lawsuit.CourtName)
	assert.Nil(t, lawsuit.Date)
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	model := &fakeChatModel{reply: "```json\n" + wellFormedReply + "\n```"}
	extractor := NewExtractor(model)

	lawsuit, err := extractor.Extract(context.Background(), "起诉状全文")
	require.NoError(t, err)
	assert.Equal(t, "张三", *lawsuit.Plaintiff.Name)
}

func TestExtractToleratesSurroundingProse(t *testing.T) {
	model := &fakeChatModel{reply: "提取结果如下：\n" + wellFormedReply + "\n希望对您有帮助。"}
	extractor := NewExtractor(model)

	lawsuit, err := extractor.Extract(context.Background(), "起诉状全文")
	require.NoError(t, err)
	assert.Equal(t, "李四", *lawsuit.Defendant.Name)
}

func TestExtractMalformedReplyYieldsNoRecord(t *testing.T) {
	model := &fakeChatModel{reply: "对不起，我无法处理这个文档。"}
	extractor := NewExtractor(model)

	lawsuit, err := extractor.Extract(context.Background(), "起诉状全文")
	assert.Nil(t, lawsuit)

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonDecode, xerr.Reason)
}

func TestExtractSchemaViolationYieldsNoRecord(t *testing.T) {
	model := &fakeChatModel{reply: `{"plaintiff": {}, "defendant": {}, "claims": null, "facts_and_reasons": "理由"}`}
	extractor := NewExtractor(model)

	lawsuit, err := extractor.Extract(context.Background(), "起诉状全文")
	assert.Nil(t, lawsuit)

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonSchema, xerr.Reason)
}

func TestExtractPropagatesProviderError(t *testing.T) {
	model := &fakeChatModel{err: failf(ReasonCredentials, nil, "key rejected")}
	extractor := NewExtractor(model)

	_, err := extractor.Extract(context.Background(), "起诉状全文")

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonCredentials, xerr.Reason)
}

func TestExtractPromptAndTemperature(t *testing.T) {
	model := &fakeChatModel{reply: wellFormedReply}
	extractor := NewExtractor(model)

	_, err := extractor.Extract(context.Background(), "原告张三诉被告李四民间借贷纠纷")
	require.NoError(t, err)

	assert.Zero(t, model.lastReq.Temperature)
	assert.Contains(t, model.lastReq.System, "法律文书助手")
	assert.Contains(t, model.lastReq.User, "原告张三诉被告李四民间借贷纠纷")
	assert.Contains(t, model.lastReq.User, "格式指令")
	assert.Contains(t, model.lastReq.User, `"facts_and_reasons"`)
}
