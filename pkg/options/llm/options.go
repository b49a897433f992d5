// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/kart-io/ragcore/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// ProviderOptions defines the configuration of a single provider endpoint.
type ProviderOptions struct {
	// Enabled toggles registration of this provider.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// BaseURL is the API base address.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey is the API key (hosted providers).
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Timeout is the request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization is the organization ID (OpenAI, optional).
	Organization string `json:"organization" mapstructure:"organization"`
}

// ToConfigMap converts the options into the map consumed by provider factories.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for one provider under the given prefix, e.g.
// prefix "llm.openai" yields "llm.openai.base-url".
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"enabled", o.Enabled, "Enable this provider.")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"base-url", o.BaseURL, "Provider API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"api-key", o.APIKey, "Provider API key.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"timeout", o.Timeout, "Provider request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"max-retries", o.MaxRetries, "Provider maximum number of retries.")
	fs.StringVar(&o.Organization, options.Join(prefixes...)+"organization", o.Organization, "Provider organization ID (optional).")
}

// Validate validates a single provider's options.
func (o *ProviderOptions) Validate(name string, requireKey bool) []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s: base-url is required", name))
	}
	if requireKey && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s: api-key is required", name))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: timeout must be positive", name))
	}
	return errs
}

// Options aggregates all provider endpoints plus embedding settings.
type Options struct {
	// EmbeddingProvider selects the provider used for query embeddings.
	EmbeddingProvider string `json:"embedding-provider" mapstructure:"embedding-provider"`

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string `json:"embedding-model" mapstructure:"embedding-model"`

	OpenAI   *ProviderOptions `json:"openai" mapstructure:"openai"`
	Gemini   *ProviderOptions `json:"gemini" mapstructure:"gemini"`
	Ollama   *ProviderOptions `json:"ollama" mapstructure:"ollama"`
	DeepSeek *ProviderOptions `json:"deepseek" mapstructure:"deepseek"`
}

// NewOptions creates default LLM options. Only ollama is enabled out of the
// box since it needs no credentials.
func NewOptions() *Options {
	return &Options{
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		OpenAI: &ProviderOptions{
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		Gemini: &ProviderOptions{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		Ollama: &ProviderOptions{
			Enabled:    true,
			BaseURL:    "http://localhost:11434",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		DeepSeek: &ProviderOptions{
			BaseURL:    "https://api.deepseek.com/v1",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
	}
}

// AddFlags adds flags for all providers to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.EmbeddingProvider, join+"llm.embedding-provider", o.EmbeddingProvider, "Provider used for query embeddings.")
	fs.StringVar(&o.EmbeddingModel, join+"llm.embedding-model", o.EmbeddingModel, "Embedding model name.")

	o.OpenAI.AddFlags(fs, join+"llm.openai")
	o.Gemini.AddFlags(fs, join+"llm.gemini")
	o.Ollama.AddFlags(fs, join+"llm.ollama")
	o.DeepSeek.AddFlags(fs, join+"llm.deepseek")
}

// Validate validates the LLM options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.EmbeddingProvider == "" {
		errs = append(errs, fmt.Errorf("llm embedding-provider is required"))
	}
	if o.EmbeddingModel == "" {
		errs = append(errs, fmt.Errorf("llm embedding-model is required"))
	}
	errs = append(errs, o.OpenAI.Validate("llm.openai", true)...)
	errs = append(errs, o.Gemini.Validate("llm.gemini", true)...)
	errs = append(errs, o.Ollama.Validate("llm.ollama", false)...)
	errs = append(errs, o.DeepSeek.Validate("llm.deepseek", true)...)
	return errs
}

// Complete reads API keys from the environment when unset.
func (o *Options) Complete(getenv func(string) string) {
	if o.OpenAI.APIKey == "" {
		o.OpenAI.APIKey = getenv("OPENAI_API_KEY")
	}
	if o.Gemini.APIKey == "" {
		o.Gemini.APIKey = getenv("GEMINI_API_KEY")
	}
	if o.DeepSeek.APIKey == "" {
		o.DeepSeek.APIKey = getenv("DEEPSEEK_API_KEY")
	}

	// A configured key implies the provider should be live.
	if o.OpenAI.APIKey != "" {
		o.OpenAI.Enabled = true
	}
	if o.Gemini.APIKey != "" {
		o.Gemini.Enabled = true
	}
	if o.DeepSeek.APIKey != "" {
		o.DeepSeek.Enabled = true
	}
}
