package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

// GeneratorConfig configures answer synthesis.
type GeneratorConfig struct {
	// SystemPrompt is the grounding instruction with a {{context}}
	// placeholder. The question is sent as the user message, not part
	// of the template.
	SystemPrompt string
	// MaxContextChunks bounds how many chunks enter the prompt.
	MaxContextChunks int
	// MaxChunkChars truncates each chunk's text in the prompt.
	MaxChunkChars int
	// SafeErrorAnswer is returned when the model invocation fails.
	SafeErrorAnswer string
}

// Generator builds a grounding prompt from materialized chunks and
// invokes the generative model resolved from the model registry.
type Generator struct {
	models *llm.ModelRegistry
	config *GeneratorConfig
}

// NewGenerator creates a generator. Zero prompt bounds fall back to the
// defaults of five chunks at a thousand characters each.
func NewGenerator(models *llm.ModelRegistry, config *GeneratorConfig) *Generator {
	if config.MaxContextChunks <= 0 {
		config.MaxContextChunks = 5
	}
	if config.MaxChunkChars <= 0 {
		config.MaxChunkChars = 1000
	}
	return &Generator{
		models: models,
		config: config,
	}
}

// Synthesize answers the query from the ranked chunks using modelName.
// An unknown model is a typed failure. A provider invocation error is
// logged and converted to the safe error answer so callers always get a
// well-formed result; raw provider errors never reach the boundary.
func (g *Generator) Synthesize(ctx context.Context, query string, chunks []*store.Chunk, modelName string) (string, error) {
	provider, ok := g.models.Resolve(modelName)
	if !ok {
		return "", errors.ErrRAGModelUnavailable.WithMessagef("model %q is not available", modelName)
	}

	prompt := strings.ReplaceAll(g.config.SystemPrompt, "{{context}}", g.buildContext(chunks))

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: query},
	}

	answer, err := provider.Invoke(ctx, messages, modelName)
	if err != nil {
		logger.Errorw("model invocation failed",
			"model", modelName,
			"provider", provider.Name(),
			"code", errors.ErrRAGSynthesisFailed.Code,
			"error", err.Error(),
		)
		return g.config.SafeErrorAnswer, nil
	}
	return answer, nil
}

// buildContext concatenates the top chunks, each truncated and labeled
// with its source.
func (g *Generator) buildContext(chunks []*store.Chunk) string {
	limit := g.config.MaxContextChunks
	if limit > len(chunks) {
		limit = len(chunks)
	}

	var b strings.Builder
	for i, chunk := range chunks[:limit] {
		label := fmt.Sprintf("[%d] From %s #%d", i+1, chunk.DocumentName, chunk.Ordinal)
		if chunk.Confidence > 0 {
			label += fmt.Sprintf(" (confidence %.2f)", chunk.Confidence)
		}
		b.WriteString(fmt.Sprintf("%s:\n%s\n\n", label, truncateRunes(chunk.Text, g.config.MaxChunkChars)))
	}
	return b.String()
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
