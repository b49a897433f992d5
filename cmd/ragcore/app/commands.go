package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"

	"github.com/kart-io/ragcore/cmd/ragcore/app/options"
	"github.com/kart-io/ragcore/internal/rag/biz"
	"github.com/kart-io/ragcore/pkg/utils/json"
)

// newQueryCommand answers one question against a tenant's corpus and
// prints the full result as JSON.
func newQueryCommand(opts *options.ServerOptions) *cobra.Command {
	var (
		tenantID  string
		model     string
		topK      int
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "query [flags] <question>",
		Short: "Run a query through the retrieval and synthesis pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := signalContext()

			server, err := NewServer(ctx, opts)
			if err != nil {
				return err
			}
			defer server.Close()

			result, err := server.Engine.Query(ctx, &biz.Request{
				TenantID:  tenantID,
				Query:     strings.Join(args, " "),
				Model:     model,
				TopK:      topK,
				SessionID: sessionID,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant whose corpus is queried (required)")
	cmd.Flags().StringVar(&model, "model", "", "Generative model name (default from config)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of fused results to keep (default from config)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to record the exchange in")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

// newIndexCommand rebuilds a tenant's lexical index from its full corpus.
func newIndexCommand(opts *options.ServerOptions) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the lexical index for a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := signalContext()

			server, err := NewServer(ctx, opts)
			if err != nil {
				return err
			}
			defer server.Close()

			n, err := server.Indexer.Rebuild(ctx, tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks for tenant %s\n", n, tenantID)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant whose index is rebuilt (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

// newProvidersCommand lists the enabled providers and the models they
// route. It builds only the provider layer, no store connections.
func newProvidersCommand(opts *options.ServerOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List enabled providers and routable models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, providers, err := buildProviders(opts.LLMOptions)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "embedding provider: %s (%s)\n", opts.LLMOptions.EmbeddingProvider, opts.LLMOptions.EmbeddingModel)
			fmt.Fprintln(w, "chat models:")
			for _, m := range registry.Models() {
				p, _ := registry.Resolve(m)
				fmt.Fprintf(w, "  %-24s %s\n", m, p.Name())
			}
			fmt.Fprintf(w, "%d providers, %d models\n", len(providers), registry.Len())
			return nil
		},
	}
}

// newVersionCommand prints build information.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", Name, info.GitVersion)
			fmt.Fprintf(w, "  commit:     %s\n", info.GitCommit)
			fmt.Fprintf(w, "  built:      %s\n", info.BuildDate)
			fmt.Fprintf(w, "  go version: %s\n", info.GoVersion)
			fmt.Fprintf(w, "  platform:   %s\n", info.Platform)
		},
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. A
// second signal exits immediately.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
