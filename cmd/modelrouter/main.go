package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/modelrouter/internal/cache"
	"github.com/everstacklabs/modelrouter/internal/catalog"
	"github.com/everstacklabs/modelrouter/internal/config"
	"github.com/everstacklabs/modelrouter/internal/diff"
	"github.com/everstacklabs/modelrouter/internal/pipeline"
	"github.com/everstacklabs/modelrouter/internal/router"
	"github.com/everstacklabs/modelrouter/internal/server"
	"github.com/everstacklabs/modelrouter/internal/tokenizer"
	"github.com/everstacklabs/modelrouter/internal/validate"
)

var (
	cfgFile     string
	catalogFile string
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var code exitError
		if errors.As(err, &code) {
			return int(code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return pipeline.ExitFailure
	}
	return pipeline.ExitSuccess
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modelrouter",
		Short: "Rule-based LLM model router",
		Long:  "Classifies queries into categories and routes them to the preferred model with a cost estimate.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "routing catalog file (default: built-in table)")

	rootCmd.AddCommand(
		routeCmd(),
		classifyCmd(),
		modelsCmd(),
		validateCmd(),
		diffCmd(),
		exportCmd(),
		batchCmd(),
		tokenizeCmd(),
		serveCmd(),
	)

	return rootCmd
}

func routeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <query>",
		Short: "Route a query and print the decision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			r, err := loadRouter(cfg)
			if err != nil {
				return err
			}

			hasImage, _ := cmd.Flags().GetBool("image")
			tokens := tokensFlag(cmd, cfg)
			asJSON, _ := cmd.Flags().GetBool("json")
			query := strings.Join(args, " ")

			d, err := r.Route(query, hasImage, tokens)
			if err != nil {
				return fmt.Errorf("routing query: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			printDecision(cmd.OutOrStdout(), query, d)
			return nil
		},
	}

	cmd.Flags().Bool("image", false, "Query includes an image")
	cmd.Flags().Int("tokens", 0, "Estimated total tokens (default: from config)")
	cmd.Flags().Bool("json", false, "Print the decision as JSON")

	return cmd
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <query>",
		Short: "Print the category assigned to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			hasImage, _ := cmd.Flags().GetBool("image")
			c := router.Classify(strings.Join(args, " "), hasImage, tokensFlag(cmd, cfg))
			fmt.Fprintln(cmd.OutOrStdout(), c)
			return nil
		},
	}

	cmd.Flags().Bool("image", false, "Query includes an image")
	cmd.Flags().Int("tokens", 0, "Estimated total tokens (default: from config)")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model profiles and category priorities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			r, err := loadRouter(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, p := range r.Profiles() {
				fmt.Fprintf(w, "%-20s $%-8g %8d  %-22s %s\n", p.Name, p.CostPer1KTokens, p.MaxTokens,
					strings.Join(p.Modalities, ","), strings.Join(p.Strengths, ", "))
			}
			fmt.Fprintln(w)
			for _, c := range router.Categories() {
				fmt.Fprintf(w, "%-18s -> %-16s %v\n", c, r.Select(c), r.Candidates(c))
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the routing catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			result := validate.ValidateCatalog(cat)
			fmt.Fprintln(cmd.OutOrStdout(), validate.FormatResult(result))

			if result.HasErrors() {
				return exitError(pipeline.ExitFailure)
			}
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show how a catalog changes routing compared to a base catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			candidate, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			base := catalog.Builtin()
			if basePath, _ := cmd.Flags().GetString("base"); basePath != "" {
				base, err = catalog.Load(basePath)
				if err != nil {
					return fmt.Errorf("loading base catalog: %w", err)
				}
			}

			cs := diff.Compute(base, candidate)
			fmt.Fprintln(cmd.OutOrStdout(), diff.RenderSummary(cs))

			if cs.HasChanges() {
				return exitError(pipeline.ExitChanges)
			}
			return nil
		},
	}

	cmd.Flags().String("base", "", "Base catalog to compare against (default: built-in table)")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog to a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			outPath, _ := cmd.Flags().GetString("out")
			if outPath == "" {
				data, err := catalog.Marshal(cat)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := catalog.Write(outPath, cat); err != nil {
				return err
			}
			slog.Info("catalog exported", "path", outPath, "models", len(cat.Profiles))
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output file (default: stdout)")

	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Route a batch of queries (default: built-in examples)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			r, err := loadRouter(cfg)
			if err != nil {
				return err
			}

			items := pipeline.Examples()
			if input, _ := cmd.Flags().GetString("input"); input != "" {
				items, err = pipeline.LoadItems(input)
				if err != nil {
					return err
				}
			}

			summary, err := pipeline.New(r, cfg.DefaultTokens).Run(items)
			w := cmd.OutOrStdout()
			for _, res := range summary.Results {
				printDecision(w, res.Item.Query, res.Decision)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "\nTotal: %d queries, $%g estimated\n", len(summary.Results), summary.TotalCostUSD)
			return nil
		},
	}

	cmd.Flags().String("input", "", "YAML file with a list of {query, has_image, estimated_tokens}")

	return cmd
}

func tokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize <text>",
		Short: "Tokenize text against a vocabulary built from a corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			corpus, _ := cmd.Flags().GetStringSlice("corpus")
			size := cfg.VocabSize
			if cmd.Flags().Changed("vocab-size") {
				size, _ = cmd.Flags().GetInt("vocab-size")
			}

			w := cmd.OutOrStdout()
			if len(corpus) == 0 {
				fmt.Fprintf(w, "Tokens: %q\n", tokenizer.Split(text))
				return nil
			}

			vocab, _, err := newVocabBuilder(cfg).Build(corpus, size)
			if err != nil {
				return err
			}
			tokens, ids := vocab.Tokenize(text)
			fmt.Fprintf(w, "Tokens: %q\n", tokens)
			fmt.Fprintf(w, "Token IDs: %v\n", ids)
			return nil
		},
	}

	cmd.Flags().StringSlice("corpus", nil, "Corpus text files, one sample per line")
	cmd.Flags().Int("vocab-size", 0, "Vocabulary size including <unk> and <pad> (default: from config)")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose routing over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			r, err := loadRouter(cfg)
			if err != nil {
				return err
			}

			sc := server.Config{
				Addr:          cfg.Server.Addr,
				ReadTimeout:   cfg.Server.ReadTimeout,
				WriteTimeout:  cfg.Server.WriteTimeout,
				IdleTimeout:   cfg.Server.IdleTimeout,
				RateLimit:     cfg.Server.RateLimit,
				Burst:         cfg.Server.Burst,
				DefaultTokens: cfg.DefaultTokens,
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				sc.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(r, sc).Start(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: from config)")

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if catalogFile != "" {
		cfg.CatalogPath = catalogFile
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Builtin(), nil
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	slog.Debug("catalog loaded", "path", cfg.CatalogPath, "version", cat.Version, "models", len(cat.Profiles))
	return cat, nil
}

func loadRouter(cfg *config.Config) (*router.Router, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	if result := validate.ValidateCatalog(cat); result.HasErrors() {
		slog.Warn("catalog has validation errors, routing may fail", "errors", len(result.Errors()))
	}
	return router.New(cat)
}

func newVocabBuilder(cfg *config.Config) *tokenizer.Builder {
	if cfg.NoCache {
		return tokenizer.NewBuilder(nil)
	}
	ttl, _ := cfg.CacheTTLDuration()
	fc, err := cache.New(cfg.CacheDir, ttl)
	if err != nil {
		slog.Warn("failed to create cache, continuing without", "error", err)
		return tokenizer.NewBuilder(nil)
	}
	return tokenizer.NewBuilder(fc)
}

func tokensFlag(cmd *cobra.Command, cfg *config.Config) int {
	if cmd.Flags().Changed("tokens") {
		n, _ := cmd.Flags().GetInt("tokens")
		return n
	}
	return cfg.DefaultTokens
}

func printDecision(w io.Writer, query string, d router.Decision) {
	fmt.Fprintf(w, "\nQuery: %s\n", query)
	fmt.Fprintf(w, "Routed to: %s\n", d.SelectedModel)
	fmt.Fprintf(w, "Type: %s\n", d.Category)
	fmt.Fprintf(w, "Cost: $%g\n", d.EstimatedCostUSD)
	fmt.Fprintf(w, "Max Tokens: %d\n", d.MaxTokens)
	fmt.Fprintf(w, "Modalities: %s\n", strings.Join(d.Modalities, ", "))
	fmt.Fprintf(w, "Strengths: %s\n", strings.Join(d.Strengths, ", "))
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// exitError carries a specific process exit code through cobra.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}
