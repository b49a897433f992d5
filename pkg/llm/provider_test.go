package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
}

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (f *fakeProvider) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (f *fakeProvider) Invoke(_ context.Context, _ []Message, _ string) (string, error) {
	return "ok", nil
}

func (f *fakeProvider) Name() string { return f.name }

func TestProviderRegistry(t *testing.T) {
	RegisterProvider("fake", func(config map[string]any) (Provider, error) {
		name := "fake"
		if v, ok := config["name"].(string); ok && v != "" {
			name = v
		}
		return &fakeProvider{name: name}, nil
	})

	p, err := NewProvider("fake", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name())

	assert.Contains(t, ListProviders(), "fake")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("does-not-exist", nil)
	assert.Error(t, err)
}
