package errors

import "google.golang.org/grpc/codes"

// Retrieval/fusion engine errors (service code 20).
var (
	// Request errors (category 01)
	ErrRAGInvalidQuery  = Register(New(MakeCode(ServiceRAG, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid query", "查询无效"))
	ErrRAGInvalidTenant = Register(New(MakeCode(ServiceRAG, CategoryRequest, 2), 400, codes.InvalidArgument, "Invalid tenant id", "租户标识无效"))

	// Query pipeline errors
	ErrRAGEmbeddingFailed  = Register(New(MakeCode(ServiceRAG, CategoryInternal, 1), 500, codes.Internal, "Query embedding failed", "查询向量化失败"))
	ErrRAGRetrievalFailed  = Register(New(MakeCode(ServiceRAG, CategoryInternal, 2), 500, codes.Internal, "Retrieval failed", "检索失败"))
	ErrRAGSynthesisFailed  = Register(New(MakeCode(ServiceRAG, CategoryInternal, 3), 500, codes.Internal, "Answer synthesis failed", "回答生成失败"))
	ErrRAGNoResults        = Register(New(MakeCode(ServiceRAG, CategoryResource, 1), 404, codes.NotFound, "No results found", "未找到结果"))
	ErrRAGModelUnavailable = Register(New(MakeCode(ServiceRAG, CategoryRequest, 3), 400, codes.InvalidArgument, "Model not available", "模型不可用"))
	ErrRAGQueryTimeout     = Register(New(MakeCode(ServiceRAG, CategoryTimeout, 1), 408, codes.DeadlineExceeded, "Query timeout", "查询超时"))

	// Index errors
	ErrRAGIndexFailed      = Register(New(MakeCode(ServiceRAG, CategoryInternal, 4), 500, codes.Internal, "Lexical index build failed", "词法索引构建失败"))
	ErrRAGIndexCorrupted   = Register(New(MakeCode(ServiceRAG, CategoryInternal, 5), 500, codes.DataLoss, "Lexical index corrupted", "词法索引损坏"))
	ErrRAGIndexUnavailable = Register(New(MakeCode(ServiceRAG, CategoryResource, 2), 503, codes.Unavailable, "Lexical index unavailable", "词法索引不可用"))

	// Cache errors (logged, never surfaced to callers)
	ErrRAGCacheFailed = Register(New(MakeCode(ServiceRAG, CategoryCache, 1), 500, codes.Internal, "Query cache operation failed", "查询缓存操作失败"))
)
