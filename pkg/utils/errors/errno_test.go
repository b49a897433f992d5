package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	assert.Equal(t, 2007001, MakeCode(ServiceRAG, CategoryInternal, 1))

	service, category, seq := ParseCode(2007001)
	assert.Equal(t, ServiceRAG, service)
	assert.Equal(t, CategoryInternal, category)
	assert.Equal(t, 1, seq)
}

func TestErrnoIs(t *testing.T) {
	err := ErrRAGEmbeddingFailed.WithCause(fmt.Errorf("connection refused"))

	assert.True(t, stderrors.Is(err, ErrRAGEmbeddingFailed))
	assert.False(t, stderrors.Is(err, ErrRAGModelUnavailable))
}

func TestWithCausePreservesCode(t *testing.T) {
	cause := fmt.Errorf("milvus: collection not loaded")
	err := ErrRAGRetrievalFailed.WithCause(cause)

	assert.Equal(t, ErrRAGRetrievalFailed.Code, err.Code)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "collection not loaded")
}

func TestWithMessagef(t *testing.T) {
	err := ErrRAGModelUnavailable.WithMessagef("no provider registered for model %q", "gpt-99")
	assert.Equal(t, ErrRAGModelUnavailable.Code, err.Code)
	assert.Contains(t, err.MessageEN, "gpt-99")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(New(ErrRAGNoResults.Code, 404, codes.NotFound, "dup", ""))
	})
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	e := FromError(ErrRAGQueryTimeout)
	assert.Equal(t, ErrRAGQueryTimeout.Code, e.Code)

	wrapped := FromError(fmt.Errorf("plain"))
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, 404, ErrRAGNoResults.HTTPStatus())
	assert.Equal(t, codes.NotFound, ErrRAGNoResults.GRPCStatus())
	assert.Equal(t, codes.DeadlineExceeded, ErrRAGQueryTimeout.GRPCStatus())
}
