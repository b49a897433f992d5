// Package rag provides retrieval/fusion engine configuration options.
package rag

import (
	"fmt"
	"time"

	"github.com/kart-io/ragcore/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// DefaultNoResultsAnswer is returned when fusion produces an empty result set.
const DefaultNoResultsAnswer = "関連する情報が見つかりませんでした。"

// DefaultSafeErrorAnswer is returned when answer synthesis fails. Provider
// errors are logged, never echoed to callers.
const DefaultSafeErrorAnswer = "回答の生成中にエラーが発生しました。しばらくしてからもう一度お試しください。"

// DefaultSystemPrompt is the grounding prompt for answer synthesis. The
// question arrives as the user message.
const DefaultSystemPrompt = `You are a helpful assistant that answers questions based on the provided context.
Use the following context to answer the question. If you cannot find the answer in the context, say so.
Always cite the source documents when providing information.

Context:
{{context}}`

// Options contains engine-specific configuration.
type Options struct {
	// TopK is the number of fused results to keep.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Breadths are the neighbor counts searched concurrently per query.
	Breadths []int `json:"breadths" mapstructure:"breadths"`

	// RetrievalFinalK bounds the merged vector result set after dedup.
	RetrievalFinalK int `json:"retrieval-final-k" mapstructure:"retrieval-final-k"`

	// Collection is the name of the Milvus collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// VectorWeight is the dense score weight in fusion.
	VectorWeight float64 `json:"vector-weight" mapstructure:"vector-weight"`

	// LexicalWeight is the lexical score weight in fusion.
	LexicalWeight float64 `json:"lexical-weight" mapstructure:"lexical-weight"`

	// RetrievalTimeout bounds each search branch.
	RetrievalTimeout time.Duration `json:"retrieval-timeout" mapstructure:"retrieval-timeout"`

	// MaterializeTimeout bounds each materialization batch.
	MaterializeTimeout time.Duration `json:"materialize-timeout" mapstructure:"materialize-timeout"`

	// MaterializeBatchSize is the number of chunk ids resolved per batch.
	MaterializeBatchSize int `json:"materialize-batch-size" mapstructure:"materialize-batch-size"`

	// DefaultModel is the chat model used when a request names none.
	DefaultModel string `json:"default-model" mapstructure:"default-model"`

	// SystemPrompt is the grounding prompt template.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`

	// NoResultsAnswer is the fixed answer for empty retrievals.
	NoResultsAnswer string `json:"no-results-answer" mapstructure:"no-results-answer"`

	// SafeErrorAnswer is the fixed answer for synthesis failures.
	SafeErrorAnswer string `json:"safe-error-answer" mapstructure:"safe-error-answer"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		TopK:                 5,
		Breadths:             []int{3, 5, 7},
		RetrievalFinalK:      5,
		Collection:           "rag_chunks",
		EmbeddingDim:         768,
		VectorWeight:         0.7,
		LexicalWeight:        0.3,
		RetrievalTimeout:     10 * time.Second,
		MaterializeTimeout:   15 * time.Second,
		MaterializeBatchSize: 20,
		DefaultModel:         "gpt-4.1-mini",
		SystemPrompt:         DefaultSystemPrompt,
		NoResultsAnswer:      DefaultNoResultsAnswer,
		SafeErrorAnswer:      DefaultSafeErrorAnswer,
	}
}

// AddFlags adds flags for engine options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Number of fused results to keep.")
	fs.IntSliceVar(&o.Breadths, options.Join(prefixes...)+"rag.breadths", o.Breadths, "Neighbor counts searched concurrently.")
	fs.IntVar(&o.RetrievalFinalK, options.Join(prefixes...)+"rag.retrieval-final-k", o.RetrievalFinalK, "Merged vector hits kept after dedup.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"rag.collection", o.Collection, "Milvus collection name.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"rag.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.Float64Var(&o.VectorWeight, options.Join(prefixes...)+"rag.vector-weight", o.VectorWeight, "Dense score weight in fusion.")
	fs.Float64Var(&o.LexicalWeight, options.Join(prefixes...)+"rag.lexical-weight", o.LexicalWeight, "Lexical score weight in fusion.")
	fs.DurationVar(&o.RetrievalTimeout, options.Join(prefixes...)+"rag.retrieval-timeout", o.RetrievalTimeout, "Timeout per search branch.")
	fs.DurationVar(&o.MaterializeTimeout, options.Join(prefixes...)+"rag.materialize-timeout", o.MaterializeTimeout, "Timeout per materialization batch.")
	fs.IntVar(&o.MaterializeBatchSize, options.Join(prefixes...)+"rag.materialize-batch-size", o.MaterializeBatchSize, "Chunk ids resolved per batch.")
	fs.StringVar(&o.DefaultModel, options.Join(prefixes...)+"rag.default-model", o.DefaultModel, "Chat model used when a request names none.")
	fs.StringVar(&o.SystemPrompt, options.Join(prefixes...)+"rag.system-prompt", o.SystemPrompt, "Grounding prompt template ({{context}} placeholder).")
	fs.StringVar(&o.NoResultsAnswer, options.Join(prefixes...)+"rag.no-results-answer", o.NoResultsAnswer, "Answer returned for empty retrievals.")
	fs.StringVar(&o.SafeErrorAnswer, options.Join(prefixes...)+"rag.safe-error-answer", o.SafeErrorAnswer, "Answer returned on synthesis failure.")
}

// Validate validates the engine options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if len(o.Breadths) == 0 {
		errs = append(errs, fmt.Errorf("at least one breadth is required"))
	}
	for _, b := range o.Breadths {
		if b <= 0 {
			errs = append(errs, fmt.Errorf("breadth %d must be positive", b))
		}
	}
	if o.RetrievalFinalK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval-final-k must be positive"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.VectorWeight < 0 || o.LexicalWeight < 0 {
		errs = append(errs, fmt.Errorf("fusion weights must be non-negative"))
	}
	if o.VectorWeight+o.LexicalWeight <= 0 {
		errs = append(errs, fmt.Errorf("fusion weights must not both be zero"))
	}
	if o.MaterializeBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("materialize-batch-size must be positive"))
	}
	return errs
}

// Complete completes the engine options with defaults.
func (o *Options) Complete() error {
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.NoResultsAnswer == "" {
		o.NoResultsAnswer = DefaultNoResultsAnswer
	}
	if o.SafeErrorAnswer == "" {
		o.SafeErrorAnswer = DefaultSafeErrorAnswer
	}
	return nil
}
