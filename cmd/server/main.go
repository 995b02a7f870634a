// Package main provides the entry point for the SQLite explorer MCP server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mekanixms/sqlite-mcp-server/cmd/server/config"
	"github.com/mekanixms/sqlite-mcp-server/cmd/server/middleware"
	"github.com/mekanixms/sqlite-mcp-server/pkg/handlers"
	"github.com/mekanixms/sqlite-mcp-server/pkg/infrastructure/metrics"
	"github.com/mekanixms/sqlite-mcp-server/pkg/infrastructure/pool"
	"github.com/mekanixms/sqlite-mcp-server/pkg/repositories/sqlite"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

const serverName = "sqlite-explorer"

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sqlite-explorer",
	Short: "SQLite explorer MCP server",
	Long: `An MCP server for exploring a single SQLite database.

It lists and describes tables, runs read-only queries, applies single
INSERT, UPDATE or DELETE statements, and computes descriptive statistics
for a table. The server speaks MCP over stdin/stdout.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server with the specified configuration.

Example:
  sqlite-explorer serve --database ./app.db
  DB_PATH=./app.db sqlite-explorer serve --log-level debug`,
	RunE: runServer,
}

func init() {
	// Add serve command
	rootCmd.AddCommand(serveCmd)

	defaults := config.DefaultConfig()

	// Command flags
	serveCmd.Flags().StringP("config", "c", "", "config file path")
	serveCmd.Flags().String("database", defaults.Database, "SQLite database file (default ~/"+config.DefaultDatabaseName+")")
	serveCmd.Flags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	serveCmd.Flags().Duration("connection-timeout", defaults.ConnectionTimeout, "timeout for opening the database")
	serveCmd.Flags().Duration("busy-timeout", defaults.BusyTimeout, "how long to wait on a locked database")
	serveCmd.Flags().Duration("query-timeout", defaults.QueryTimeout, "timeout for each tool call (0 disables)")
	serveCmd.Flags().Int64("max-rows", defaults.MaxRows, "maximum rows returned by a query (0 means unlimited)")
	serveCmd.Flags().Bool("metrics", defaults.Metrics.Enabled, "enable Prometheus metrics")
	serveCmd.Flags().String("metrics-address", defaults.Metrics.Address, "metrics server address")
	serveCmd.Flags().String("metrics-path", defaults.Metrics.Path, "metrics endpoint path")

	// Bind flags to viper under the config file keys
	for key, flag := range map[string]string{
		"config":             "config",
		"database":           "database",
		"log_level":          "log-level",
		"connection_timeout": "connection-timeout",
		"busy_timeout":       "busy-timeout",
		"query_timeout":      "query-timeout",
		"max_rows":           "max-rows",
		"metrics.enabled":    "metrics",
		"metrics.address":    "metrics-address",
		"metrics.path":       "metrics-path",
	} {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Errorf("failed to bind flag %s: %w", flag, err))
		}
	}
	viper.SetEnvPrefix("SQLITE_EXPLORER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// DB_PATH is honored for compatibility with existing client configurations.
	if err := viper.BindEnv("database", "SQLITE_EXPLORER_DATABASE", "DB_PATH"); err != nil {
		panic(fmt.Errorf("failed to bind database env: %w", err))
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("SQLite Explorer MCP Server\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Commit:     %s\n", commit)
			fmt.Printf("Build Date: %s\n", buildDate)
			fmt.Printf("Driver:     %s\n", pool.DriverName())
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	logger := setupLogging(cfg.LogLevel)
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("database", cfg.Database).
		Msg("Starting SQLite explorer MCP server")

	// Create metrics collector
	var metricsCollector metrics.Collector
	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusCollector()
		metricsCollector = prom
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Address, cfg.Metrics.Path, prom.Registry())
		go func() {
			logger.Info().
				Str("address", cfg.Metrics.Address).
				Str("path", cfg.Metrics.Path).
				Msg("Starting metrics server")
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start metrics server")
			}
		}()
	} else {
		metricsCollector = metrics.NewDiscardCollector()
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger, metricsCollector)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	stdio := server.NewStdioServer(app.mcp)
	stdio.SetErrorLogger(log.New(logger.With().Str("component", "stdio").Logger(), "", 0))

	logger.Info().Msg("Serving MCP on stdio")
	serveErr := stdio.Listen(ctx, os.Stdin, os.Stdout)
	switch {
	case ctx.Err() != nil:
		logger.Info().Msg("Received shutdown signal")
	case serveErr != nil:
		logger.Error().Err(serveErr).Msg("Stdio server stopped")
	default:
		logger.Info().Msg("Client closed the session")
	}

	// Graceful shutdown
	if err := app.close(); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	// Stop metrics server
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("Server shutdown complete")

	if serveErr != nil && ctx.Err() == nil {
		return serveErr
	}
	return nil
}

// app holds the wired components of a running server.
type app struct {
	mcp     *server.MCPServer
	manager *pool.Manager
}

func (a *app) close() error {
	return a.manager.Close()
}

// newApp wires the connection manager, repositories, services and handlers
// into an MCP server.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metricsCollector metrics.Collector) (*app, error) {
	manager, err := pool.New(pool.Config{
		Path:              cfg.Database,
		ConnectionTimeout: cfg.ConnectionTimeout,
		BusyTimeout:       cfg.BusyTimeout,
	}, logger.With().Str("component", "connection_manager").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	manager.SetMetricsCollector(&poolMetricsAdapter{collector: metricsCollector})

	// A missing or unreadable database is reported per call as CONNECTION_FAILED.
	checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
	if err := manager.HealthCheck(checkCtx); err != nil {
		logger.Warn().Err(err).Str("database", cfg.Database).Msg("Database is not reachable yet")
	}
	cancel()

	// Create repositories
	queryRepo := sqlite.NewQueryRepository(manager, logger.With().Str("component", "query_repository").Logger())
	metadataRepo := sqlite.NewMetadataRepository(manager, logger.With().Str("component", "metadata_repository").Logger())
	tableRepo := sqlite.NewTableRepository(manager, logger.With().Str("component", "table_repository").Logger())

	// Create services
	queryService := services.NewQueryService(
		queryRepo,
		cfg.MaxRows,
		&serviceLoggerAdapter{logger: logger.With().Str("component", "query_service").Logger()},
		&serviceMetricsAdapter{collector: metricsCollector},
	)

	metadataService := services.NewMetadataService(
		metadataRepo,
		&serviceLoggerAdapter{logger: logger.With().Str("component", "metadata_service").Logger()},
		&serviceMetricsAdapter{collector: metricsCollector},
	)

	analysisService := services.NewAnalysisService(
		tableRepo,
		&serviceLoggerAdapter{logger: logger.With().Str("component", "analysis_service").Logger()},
		&serviceMetricsAdapter{collector: metricsCollector},
	)

	// Create handlers
	registrars := []handlers.ToolRegistrar{
		handlers.NewMetadataHandler(
			metadataService,
			cfg.Database,
			cfg.QueryTimeout,
			&handlerLoggerAdapter{logger: logger.With().Str("component", "metadata_handler").Logger()},
			&handlerMetricsAdapter{collector: metricsCollector},
		),
		handlers.NewQueryHandler(
			queryService,
			cfg.QueryTimeout,
			&handlerLoggerAdapter{logger: logger.With().Str("component", "query_handler").Logger()},
			&handlerMetricsAdapter{collector: metricsCollector},
		),
		handlers.NewAnalysisHandler(
			analysisService,
			cfg.QueryTimeout,
			&handlerLoggerAdapter{logger: logger.With().Str("component", "analysis_handler").Logger()},
			&handlerMetricsAdapter{collector: metricsCollector},
		),
	}

	// Create middleware
	logMW := middleware.NewLoggingMiddleware(logger.With().Str("component", "tool_calls").Logger())
	metricsMW := middleware.NewMetricsMiddleware(&middlewareMetricsAdapter{collector: metricsCollector})
	recoverMW := middleware.NewRecoveryMiddleware(logger)

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithResourceRecovery(),
		server.WithToolHandlerMiddleware(logMW.ToolMiddleware()),
		server.WithToolHandlerMiddleware(metricsMW.ToolMiddleware()),
		server.WithToolHandlerMiddleware(recoverMW.ToolMiddleware()),
	)
	for _, r := range registrars {
		r.Register(s)
	}

	return &app{mcp: s, manager: manager}, nil
}

func loadConfig() (*config.Config, error) {
	// Load config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Build configuration
	cfg := &config.Config{
		Database:          viper.GetString("database"),
		LogLevel:          viper.GetString("log_level"),
		ConnectionTimeout: viper.GetDuration("connection_timeout"),
		BusyTimeout:       viper.GetDuration("busy_timeout"),
		QueryTimeout:      viper.GetDuration("query_timeout"),
		MaxRows:           viper.GetInt64("max_rows"),
		Metrics: config.MetricsConfig{
			Enabled: viper.GetBool("metrics.enabled"),
			Address: viper.GetString("metrics.address"),
			Path:    viper.GetString("metrics.path"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupLogging builds the process logger. Stdout carries the MCP protocol, so
// logs go to stderr.
func setupLogging(level string) zerolog.Logger {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	// Set log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
		// Enable caller info for debug level
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			return fmt.Sprintf("%s:%d", short, line)
		}
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	// Create logger with caller info for debug level
	logger := zerolog.New(os.Stderr).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", serverName)

	if logLevel == zerolog.DebugLevel {
		logger = logger.Caller()
	}

	return logger.Logger()
}
