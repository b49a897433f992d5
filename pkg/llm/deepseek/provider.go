// Package deepseek provides the DeepSeek provider. The API is
// OpenAI-compatible; DeepSeek hosts no embedding models, so Embed
// returns an error and the provider is chat-only in practice.
package deepseek

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/utils/httpclient"
	"github.com/kart-io/ragcore/pkg/utils/json"
)

// ProviderName is the registry identifier of this provider.
const ProviderName = "deepseek"

// Models are the chat models routed to this provider by default.
var Models = []string{
	"deepseek-chat",
	"deepseek-reasoner",
}

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config holds DeepSeek provider configuration.
type Config struct {
	BaseURL    string        `json:"base_url" mapstructure:"base_url"`
	APIKey     string        `json:"api_key" mapstructure:"api_key"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.deepseek.com/v1",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// Provider implements llm.Provider on the DeepSeek API.
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider creates a DeepSeek provider from a configuration map.
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek: api_key is required")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig creates a DeepSeek provider from structured config.
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

// Embed is not supported by DeepSeek.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("deepseek: embeddings are not supported")
}

// EmbedSingle is not supported by DeepSeek.
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("deepseek: embeddings are not supported")
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Invoke runs a chat completion with the given messages and model.
func (p *Provider) Invoke(ctx context.Context, messages []llm.Message, model string) (string, error) {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: chatMessages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
