// Package options contains flags and configuration for the ragcore CLI.
package options

import (
	stderrors "errors"

	"github.com/spf13/pflag"

	cacheopts "github.com/kart-io/ragcore/pkg/options/cache"
	llmopts "github.com/kart-io/ragcore/pkg/options/llm"
	logopts "github.com/kart-io/ragcore/pkg/options/logger"
	milvusopts "github.com/kart-io/ragcore/pkg/options/milvus"
	mongoopts "github.com/kart-io/ragcore/pkg/options/mongodb"
	ragopts "github.com/kart-io/ragcore/pkg/options/rag"
)

// ServerOptions aggregates the configuration of every component the
// engine is wired from.
type ServerOptions struct {
	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MongoOptions contains the document store configuration.
	MongoOptions *mongoopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// MilvusOptions contains the vector index configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// CacheOptions contains the query cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// LLMOptions contains the provider endpoints and embedding settings.
	LLMOptions *llmopts.Options `json:"llm" mapstructure:"llm"`

	// RAGOptions contains the engine tuning parameters.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		LogOptions:    logopts.NewOptions(),
		MongoOptions:  mongoopts.NewOptions(),
		MilvusOptions: milvusopts.NewOptions(),
		CacheOptions:  cacheopts.NewOptions(),
		LLMOptions:    llmopts.NewOptions(),
		RAGOptions:    ragopts.NewOptions(),
	}
}

// AddFlags adds all component flags to the given FlagSet.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.LogOptions.AddFlags(fs)
	o.MongoOptions.AddFlags(fs)
	o.MilvusOptions.AddFlags(fs)
	o.CacheOptions.AddFlags(fs)
	o.LLMOptions.AddFlags(fs)
	o.RAGOptions.AddFlags(fs)
}

// Complete fills derived and environment-sourced values.
func (o *ServerOptions) Complete(getenv func(string) string) error {
	if err := o.MongoOptions.Complete(); err != nil {
		return err
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return err
	}
	o.LLMOptions.Complete(getenv)
	return o.RAGOptions.Complete()
}

// Validate checks whether the options are valid, joining every problem
// into a single error.
func (o *ServerOptions) Validate() error {
	var errs []error
	if err := o.LogOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.MongoOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	return stderrors.Join(errs...)
}
