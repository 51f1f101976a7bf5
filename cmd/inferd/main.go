package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/device"
	"inferd/internal/httpapi"
	"inferd/internal/manager"
	"inferd/internal/registry"
	"inferd/internal/runtime/factory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "inferd:", err)
		os.Exit(1)
	}
}

// serveOptions collects flag values; zero values defer to the config file and
// built-in defaults.
type serveOptions struct {
	configPath   string
	addr         string
	modelsDir    string
	defaultModel string
	budgetMB     int
	logLevel     string
	corsOrigins  string
}

func newRootCmd() *cobra.Command {
	opts := &serveOptions{}
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Model daemon for text-to-image generation and image classification",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.addr, "addr", "", "HTTP listen address (defaults INFERD_ADDR or :8080)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory to scan for *.onnx classifier models")
	pf.StringVar(&opts.defaultModel, "default-model", "", "Default model id when a request omits model")
	pf.IntVar(&opts.budgetMB, "memory-budget-mb", 0, "Memory budget in MB for the resident model (0=unlimited)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated list of allowed CORS origins (enables CORS)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List discovered models and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(opts)
		},
	}
	root.AddCommand(serveCmd, modelsCmd)
	return root
}

// resolveConfig merges, in increasing precedence: built-in defaults, the
// config file, environment, flags.
func resolveConfig(opts *serveOptions) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("INFERD_ADDR")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if opts.modelsDir != "" {
		cfg.ModelsDir = opts.modelsDir
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "~/models/onnx"
	}
	if opts.defaultModel != "" {
		cfg.DefaultModel = opts.defaultModel
	}
	if opts.budgetMB > 0 {
		cfg.MemoryBudgetMB = opts.budgetMB
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if origins := splitCSV(opts.corsOrigins); len(origins) > 0 {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowedOrigins = origins
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func runServe(opts *serveOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	reg, err := registry.Build(cfg.ModelsDir, cfg.Generators)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	logger.Info().Int("models", len(reg)).Str("models_dir", cfg.ModelsDir).Msg("registry built")

	dev := device.Probe()
	logger.Info().
		Str("accelerator", dev.Accelerator).
		Int("logical_cpus", dev.LogicalCPUs).
		Int("total_mem_mb", dev.TotalMemMB).
		Msg("host probed")

	keyEnv := cfg.OpenAIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	fac := factory.New(factory.Options{
		ONNXLibraryPath: cfg.ONNX.LibraryPath,
		ONNXThreads:     device.Threads(cfg.ONNX.Threads),
		OpenAIAPIKey:    os.Getenv(keyEnv),
	})

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		DefaultModel:  cfg.DefaultModel,
		BudgetMB:      cfg.MemoryBudgetMB,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSec) * time.Second,
		DrainTimeout:  time.Duration(cfg.DrainTimeoutSec) * time.Second,
		Factory:       fac,
		Device:        dev,
		Logger:        logger,
	})

	httpapi.SetLogger(logger)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr)}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info().Msg("shutting down")
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.Close(); err != nil {
		logger.Error().Err(err).Msg("manager close error")
	}
	return nil
}

func runModels(opts *serveOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	reg, err := registry.Build(cfg.ModelsDir, cfg.Generators)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if len(reg) == 0 {
		fmt.Println("no models found")
		return nil
	}
	for _, m := range reg {
		loc := m.Path
		if m.Remote() {
			loc = m.Backend
			if m.RemoteModel != "" {
				loc += ":" + m.RemoteModel
			}
		}
		fmt.Printf("%-32s %-22s %s\n", m.ID, m.Capability, loc)
	}
	return nil
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
