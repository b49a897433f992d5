package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

func testGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		SystemPrompt:     "Answer from the context.\n\nContext:\n{{context}}",
		MaxContextChunks: 5,
		MaxChunkChars:    1000,
		SafeErrorAnswer:  "回答の生成中にエラーが発生しました。",
	}
}

func testRegistry(chat llm.ChatProvider, models ...string) *llm.ModelRegistry {
	reg := llm.NewModelRegistry()
	reg.RegisterModels(models, chat)
	return reg
}

func TestSynthesizeBuildsGroundedPrompt(t *testing.T) {
	chat := &fakeChat{answer: "grounded answer"}
	g := NewGenerator(testRegistry(chat, "gpt-4.1-mini"), testGeneratorConfig())

	chunks := []*store.Chunk{testChunk("c1", "tenant-1", "invoices are due on the 15th")}

	answer, err := g.Synthesize(context.Background(), "when are invoices due?", chunks, "gpt-4.1-mini")
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)

	require.Len(t, chat.lastMsgs, 2)
	system := chat.lastMsgs[0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "invoices are due on the 15th")
	assert.Contains(t, system.Content, "[1] From handbook.md #1")
	assert.NotContains(t, system.Content, "{{context}}")

	// The question reaches the model exactly once, as the user message.
	assert.NotContains(t, system.Content, "when are invoices due?")
	assert.Equal(t, llm.RoleUser, chat.lastMsgs[1].Role)
	assert.Equal(t, "when are invoices due?", chat.lastMsgs[1].Content)
}

func TestSynthesizePromptBounds(t *testing.T) {
	chat := &fakeChat{}
	g := NewGenerator(testRegistry(chat, "gpt-4.1-mini"), testGeneratorConfig())

	long := strings.Repeat("x", 3000)
	var chunks []*store.Chunk
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		chunks = append(chunks, testChunk(id, "tenant-1", long))
	}

	_, err := g.Synthesize(context.Background(), "q", chunks, "gpt-4.1-mini")
	require.NoError(t, err)

	system := chat.lastMsgs[0].Content
	// At most five chunks, each truncated to 1000 chars.
	assert.Contains(t, system, "[5]")
	assert.NotContains(t, system, "[6]")
	assert.Less(t, len(system), 6*1000+500)
}

func TestSynthesizeConfidenceLabel(t *testing.T) {
	chat := &fakeChat{}
	g := NewGenerator(testRegistry(chat, "gpt-4.1-mini"), testGeneratorConfig())

	chunk := testChunk("c1", "tenant-1", "text")
	chunk.Confidence = 0.87

	_, err := g.Synthesize(context.Background(), "q", []*store.Chunk{chunk}, "gpt-4.1-mini")
	require.NoError(t, err)
	assert.Contains(t, chat.lastMsgs[0].Content, "(confidence 0.87)")
}

func TestSynthesizeUnknownModel(t *testing.T) {
	g := NewGenerator(testRegistry(&fakeChat{}, "gpt-4.1-mini"), testGeneratorConfig())

	_, err := g.Synthesize(context.Background(), "q", nil, "claude-unknown")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRAGModelUnavailable.Code))
}

func TestSynthesizeProviderFailureReturnsSafeAnswer(t *testing.T) {
	chat := &fakeChat{failing: true}
	cfg := testGeneratorConfig()
	g := NewGenerator(testRegistry(chat, "gpt-4.1-mini"), cfg)

	answer, err := g.Synthesize(context.Background(), "q", nil, "gpt-4.1-mini")
	require.NoError(t, err)
	assert.Equal(t, cfg.SafeErrorAnswer, answer)
	assert.NotContains(t, answer, "provider unavailable")
}
