package cli

import (
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docqa/internal/configloader"
	"github.com/yaklabco/docqa/internal/llm"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/internal/server"
	"github.com/yaklabco/docqa/internal/service"
	"github.com/yaklabco/docqa/pkg/prose"
)

type serveFlags struct {
	host       string
	port       int
	backendURL string
	retries    int
	threshold  float64
	noLinter   bool
	logFormat  string
	shutdown   time.Duration
}

func newServeCommand(info BuildInfo) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review HTTP API",
		Long: `Run the docqa HTTP API.

Endpoints:
  GET  /health       backend health and fallback status
  POST /review       review a document with the model: {"doc": "..."}
  POST /v1/validate  validate and apply a supplied edit batch without a model
  GET  /metrics      Prometheus metrics

Examples:
  docqa serve
  docqa serve --port 9000 --backend-url http://localhost:8080
  DOCQA_FALLBACK_API_KEY=... docqa serve --log-format json

Environment:
` + envHelp(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, info, flags)
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&flags.backendURL, "backend-url", "", "TGI base URL")
	cmd.Flags().IntVar(&flags.retries, "retries", 0, "extra model calls after a malformed tool call")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "fenced-code ratio at which code edits are allowed")
	cmd.Flags().BoolVar(&flags.noLinter, "no-linter", false, "disable the prose linter")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	cmd.Flags().DurationVar(&flags.shutdown, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}

func runServe(cmd *cobra.Command, info BuildInfo, flags *serveFlags) error {
	overrides := &configloader.Overrides{
		Host:            changed(cmd, "host", flags.host),
		Port:            changed(cmd, "port", flags.port),
		BackendURL:      changed(cmd, "backend-url", flags.backendURL),
		Retries:         changed(cmd, "retries", flags.retries),
		CodeEditRatio:   changed(cmd, "threshold", flags.threshold),
		LogFormat:       changed(cmd, "log-format", flags.logFormat),
		ShutdownTimeout: changed(cmd, "shutdown-timeout", flags.shutdown),
	}
	if flags.noLinter {
		disabled := false
		overrides.LinterEnabled = &disabled
	}

	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	logger := logging.NewWithOptions(logging.Options{
		Level:      level,
		Format:     cfg.Log.Format,
		Writer:     cmd.ErrOrStderr(),
		Timestamps: true,
	})
	logging.SetDefault(logger)

	router := llm.NewRouterFromConfig(cfg)
	metrics := server.NewMetrics()

	opts := []service.Option{service.WithObserver(metrics)}
	if cfg.Linter.Enabled {
		linter, err := prose.New(prose.WithLanguage(cfg.Linter.Language))
		if err != nil {
			return fmt.Errorf("create linter: %w", err)
		}
		logger.Debug("prose linter ready", "rules", len(linter.Rules()), "language", cfg.Linter.Language)
		opts = append(opts, service.WithLinter(linter))
	}
	reviewer := service.NewReviewer(cfg, router, opts...)

	srv := server.New(cfg, reviewer, router,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting docqa",
		logging.FieldVersion, info.Version,
		logging.FieldAddr, cfg.Addr(),
		logging.FieldBackend, cfg.Backend.BaseURL,
		"fallback", router.HasFallback(),
		"linter", cfg.Linter.Enabled,
	)

	return srv.ListenAndServe(ctx)
}

// envHelp lists the DOCQA_* variables the config loader understands.
func envHelp() string {
	vars := configloader.ListEnvVars()
	names := slices.Sorted(maps.Keys(vars))
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	var builder strings.Builder
	for _, name := range names {
		fmt.Fprintf(&builder, "  %-*s  %s\n", width, name, vars[name])
	}
	return builder.String()
}
