// cmd/tools/context-preview/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/database"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/monthkey"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/workers/assistant"
)

type options struct {
	configPath string
	dataDir    string
	baseURL    string
	month      string
	logLevel   string
	timeout    time.Duration
	asJSON     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "context-preview",
		Short:        "Build assistant context documents from the command line",
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Config file (defaults to configs/config.yaml lookup)")
	f.StringVar(&opts.dataDir, "data-dir", "", "Read payloads from <dir>/<month>/<source>.json instead of the configured backends")
	f.StringVar(&opts.baseURL, "base-url", "", "Dashboard file API base URL, overrides retrieval.http.base_url")
	f.StringVar(&opts.month, "month", "", "Current month (YYYY-MM), defaults to assistant.default_month")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall deadline")

	root.AddCommand(newBuildCmd(opts), newAnalyzeCmd(opts))
	return root
}

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build <question>",
		Short:   "Print the context document for a question",
		Example: `  context-preview build --data-dir ./exports --month 2025-09 "전월 대비 판매 변화"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			env, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			defer env.close()

			result := env.engine.Builder.Build(ctx, strings.Join(args, " "), env.month)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			fmt.Fprint(cmd.OutOrStdout(), result.FormattedText)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nstatus=%s months=%s sources=%s missing=%d\n",
				result.Raw.Status,
				strings.Join(result.Raw.Months, ","),
				strings.Join(result.Sources, ","),
				len(result.Raw.Missing),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full build result as JSON")
	return cmd
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <question>",
		Short: "Show which sources and months a question would load",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			// Analyze never fetches, so no retriever is needed.
			engine, err := assistant.NewEngine(cfg, nil, newLogger(opts), nil)
			if err != nil {
				return err
			}

			month, err := resolveMonth(opts, cfg)
			if err != nil {
				return err
			}
			intent := engine.Analyzer.Analyze(strings.Join(args, " "))
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"requiredSources": intent.RequiredSources,
				"monthsToLoad":    intent.MonthsToLoad,
				"matchedRules":    intent.MatchedRules,
				"months":          monthkey.Strings(monthkey.Range(month, intent.MonthsToLoad)),
			})
		},
	}
}

type environment struct {
	engine *assistant.Engine
	month  string
	close  func()
}

func setup(ctx context.Context, opts *options) (*environment, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(opts)

	env := &environment{close: func() {}}
	var retriever retrieval.Retriever
	if opts.dataDir != "" {
		retriever = retrieval.NewFileRetriever(opts.dataDir)
	} else {
		stores, err := database.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		env.close = func() { _ = stores.Close() }
		router, err := retrieval.NewFromConfig(cfg.Retrieval, stores.Backends())
		if err != nil {
			env.close()
			return nil, err
		}
		retriever = router
	}

	env.engine, err = assistant.NewEngine(cfg, retriever, log, nil)
	if err != nil {
		env.close()
		return nil, err
	}

	// Build reports an invalid month itself, so it is passed through unparsed.
	env.month = opts.month
	if env.month == "" {
		env.month = cfg.Assistant.DefaultMonth
	}
	return env, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFromFile(opts.configPath)
	case opts.dataDir != "" || opts.baseURL != "":
		cfg = config.Default()
	default:
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Retrieval.HTTP.BaseURL = opts.baseURL
	}
	return cfg, nil
}

func resolveMonth(opts *options, cfg *config.Config) (monthkey.Key, error) {
	month := opts.month
	if month == "" {
		month = cfg.Assistant.DefaultMonth
	}
	return monthkey.Parse(month)
}

func newLogger(opts *options) logger.Logger {
	return logger.NewZapAdapter(logger.New(opts.logLevel, "console", "stderr"))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
