// Package cache provides query cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/kart-io/ragcore/pkg/options"
	redisopts "github.com/kart-io/ragcore/pkg/options/redis"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the per-tenant query cache.
type Options struct {
	// Enabled toggles the cache.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the lifetime of a cached answer.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix is the redis key namespace.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis holds the connection configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions creates default cache options.
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "rag:query:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"cache.enabled", o.Enabled, "Enable the query cache.")
	fs.DurationVar(&o.TTL, options.Join(prefixes...)+"cache.ttl", o.TTL, "Query cache TTL.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"cache.key-prefix", o.KeyPrefix, "Query cache key prefix.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, prefixes...)
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Enabled {
		if o.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache ttl must be positive"))
		}
		if o.Redis != nil {
			errs = append(errs, o.Redis.Validate()...)
		}
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return o.Redis.Complete()
}
