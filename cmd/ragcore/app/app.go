// Package app assembles the ragcore command line interface: configuration
// loading, engine wiring, and the query/index/providers subcommands.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kart-io/ragcore/cmd/ragcore/app/options"
)

// Name is the name of the application.
const Name = "ragcore"

const commandDesc = `Hybrid retrieval and answer synthesis engine.

ragcore fuses dense vector search (Milvus) with lexical BM25 ranking over a
multi-tenant chunk corpus, materializes the fused ranking from MongoDB, and
synthesizes a grounded answer through a configurable LLM provider.`

// NewCommand builds the root ragcore command.
func NewCommand() *cobra.Command {
	opts := options.NewServerOptions()

	cmd := &cobra.Command{
		Use:           Name,
		Short:         "Hybrid retrieval and answer synthesis engine",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			version.PrintAndExitIfRequested()
			return loadConfig(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	version.AddFlags(cmd.PersistentFlags())
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newQueryCommand(opts),
		newIndexCommand(opts),
		newProvidersCommand(opts),
		newVersionCommand(),
	)

	return cmd
}

// Run executes the root command and exits non-zero on failure.
func Run() {
	if err := NewCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment, and flags into opts,
// then completes and validates the result. Flags win over the file.
func loadConfig(cmd *cobra.Command, opts *options.ServerOptions) error {
	v := viper.New()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), "."+Name))
		v.AddConfigPath("/etc/" + Name)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := opts.Complete(os.Getenv); err != nil {
		return err
	}
	if err := opts.LogOptions.Init(); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return opts.Validate()
}
