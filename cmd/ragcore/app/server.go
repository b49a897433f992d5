package app

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/ragcore/cmd/ragcore/app/options"
	"github.com/kart-io/ragcore/internal/rag/biz"
	"github.com/kart-io/ragcore/internal/rag/store"
	milvuscomp "github.com/kart-io/ragcore/pkg/component/milvus"
	mongocomp "github.com/kart-io/ragcore/pkg/component/mongodb"
	rediscomp "github.com/kart-io/ragcore/pkg/component/redis"
	"github.com/kart-io/ragcore/pkg/infra/pool"
	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/llm/deepseek"
	"github.com/kart-io/ragcore/pkg/llm/gemini"
	"github.com/kart-io/ragcore/pkg/llm/ollama"
	"github.com/kart-io/ragcore/pkg/llm/openai"
	llmopts "github.com/kart-io/ragcore/pkg/options/llm"
)

// Server holds the wired engine and its collaborators. It owns every
// connection and pool it creates and releases them on Close.
type Server struct {
	Engine  *biz.Engine
	Indexer *biz.Indexer
	Models  *llm.ModelRegistry

	closers []func()
}

// NewServer connects the stores, builds the providers, and assembles
// the query engine from the given options.
func NewServer(ctx context.Context, opts *options.ServerOptions) (*Server, error) {
	s := &Server{}

	mongo, err := mongocomp.New(ctx, opts.MongoOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	s.closers = append(s.closers, func() { _ = mongo.Close() })

	mc, err := milvuscomp.New(opts.MilvusOptions)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	s.closers = append(s.closers, func() { _ = mc.Close(context.Background()) })

	vectors := store.NewMilvusIndex(mc, opts.RAGOptions.Collection, opts.RAGOptions.EmbeddingDim)
	if err := vectors.EnsureCollection(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	docs := store.NewMongoDocumentStore(mongo)
	blobs := store.NewMongoBlobStore(mongo)

	// The cache is an optimization: an unreachable redis degrades to a
	// disabled cache instead of failing startup.
	var redisClient *goredis.Client
	if opts.CacheOptions.Enabled {
		rc, err := rediscomp.New(ctx, opts.CacheOptions.Redis)
		if err != nil {
			logger.Warnw("redis unavailable, query cache disabled", "error", err.Error())
		} else {
			redisClient = rc.Client()
			s.closers = append(s.closers, func() { _ = rc.Close() })
		}
	}

	registry, providers, err := buildProviders(opts.LLMOptions)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Models = registry

	base, ok := providers[opts.LLMOptions.EmbeddingProvider]
	if !ok {
		s.Close()
		return nil, fmt.Errorf("embedding provider %q is not enabled", opts.LLMOptions.EmbeddingProvider)
	}
	var embedder llm.EmbeddingProvider = base
	if redisClient != nil {
		embedder = llm.NewCachedEmbeddingProvider(embedder, redisClient, nil)
	}

	retrievalPool, err := pool.NewPool("retrieval", pool.RetrievalPool, pool.RetrievalPoolConfig())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create retrieval pool: %w", err)
	}
	s.closers = append(s.closers, retrievalPool.Release)

	materializePool, err := pool.NewPool("materialize", pool.MaterializePool, pool.MaterializePoolConfig())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create materialize pool: %w", err)
	}
	s.closers = append(s.closers, materializePool.Release)

	ragOpts := opts.RAGOptions
	lexical := biz.NewLexical(blobs, nil)

	s.Engine = biz.NewEngine(
		lexical,
		biz.NewRetriever(vectors, embedder, retrievalPool, &biz.RetrieverConfig{
			Breadths: ragOpts.Breadths,
			FinalK:   ragOpts.RetrievalFinalK,
			Timeout:  ragOpts.RetrievalTimeout,
		}),
		biz.NewFuser(ragOpts.VectorWeight, ragOpts.LexicalWeight),
		biz.NewMaterializer(docs, materializePool, &biz.MaterializerConfig{
			BatchSize: ragOpts.MaterializeBatchSize,
			Timeout:   ragOpts.MaterializeTimeout,
		}),
		biz.NewGenerator(registry, &biz.GeneratorConfig{
			SystemPrompt:    ragOpts.SystemPrompt,
			SafeErrorAnswer: ragOpts.SafeErrorAnswer,
		}),
		biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
			Enabled:   opts.CacheOptions.Enabled && redisClient != nil,
			TTL:       opts.CacheOptions.TTL,
			KeyPrefix: opts.CacheOptions.KeyPrefix,
		}),
		store.NewMemorySessionStore(),
		&biz.EngineConfig{
			TopK:            ragOpts.TopK,
			DefaultModel:    ragOpts.DefaultModel,
			NoResultsAnswer: ragOpts.NoResultsAnswer,
		},
	)

	s.Indexer = biz.NewIndexer(docs, vectors, blobs, lexical, embedder, nil)

	return s, nil
}

// Close releases pools and connections in reverse creation order.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// buildProviders instantiates every enabled provider and seeds the model
// registry with the models each one hosts.
func buildProviders(opts *llmopts.Options) (*llm.ModelRegistry, map[string]llm.Provider, error) {
	registry := llm.NewModelRegistry()
	providers := make(map[string]llm.Provider)

	type candidate struct {
		name   string
		opts   *llmopts.ProviderOptions
		models []string
	}
	candidates := []candidate{
		{openai.ProviderName, opts.OpenAI, openai.Models},
		{gemini.ProviderName, opts.Gemini, gemini.Models},
		{ollama.ProviderName, opts.Ollama, ollama.Models},
		{deepseek.ProviderName, opts.DeepSeek, deepseek.Models},
	}

	for _, c := range candidates {
		if c.opts == nil || !c.opts.Enabled {
			continue
		}
		cfg := c.opts.ToConfigMap()
		if c.name == opts.EmbeddingProvider {
			cfg["embed_model"] = opts.EmbeddingModel
		}
		p, err := llm.NewProvider(c.name, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create provider %s: %w", c.name, err)
		}
		providers[c.name] = p
		registry.RegisterModels(c.models, p)
		logger.Infow("provider registered", "provider", c.name, "models", len(c.models))
	}

	if len(providers) == 0 {
		return nil, nil, fmt.Errorf("no llm provider is enabled")
	}
	return registry, providers, nil
}
