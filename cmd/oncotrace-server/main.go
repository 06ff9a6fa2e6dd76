package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oncotrace/oncotrace/internal/config"
	"github.com/oncotrace/oncotrace/internal/domain/record"
	"github.com/oncotrace/oncotrace/internal/domain/summary"
	"github.com/oncotrace/oncotrace/internal/platform/db"
	"github.com/oncotrace/oncotrace/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oncotrace-server",
		Short: "Longitudinal oncology timeline and analytics server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the timeline API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// summarizeCmd runs the pipeline over a record file without a server. The
// engine itself performs no I/O; reading the record and writing the export
// happen here, at the caller's edge.
func summarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a canonical record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			recordPath, _ := cmd.Flags().GetString("record")
			formatName, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			if recordPath == "" {
				return fmt.Errorf("--record is required")
			}
			format, err := summary.ParseFormat(formatName)
			if err != nil {
				return err
			}

			payload, err := os.ReadFile(recordPath)
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}
			var rec record.PatientRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				return fmt.Errorf("parse record: %w", err)
			}

			result, err := summary.NewService().BuildSummary(&rec)
			if err != nil {
				return err
			}
			out, err := summary.Export(result, format)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			return os.WriteFile(outPath, out, 0o644)
		},
	}
	cmd.Flags().String("record", "", "Path to a canonical record JSON file")
	cmd.Flags().String("format", "structured", "Export format: structured, tabular, document")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record-store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsePostgres() {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := pool.Exec(ctx, record.Schema); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
			fmt.Println("record store schema applied")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Record store
	var records record.Repository
	if cfg.UsePostgres() {
		pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		records = record.NewPGRepo(pool)
		logger.Info().Msg("using postgres record store")
	} else {
		records = record.NewMemRepo()
		logger.Info().Msg("DATABASE_URL not set, using in-memory record store")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API routes
	apiV1 := e.Group("/api/v1")
	summary.NewHandler(summary.NewService(), records).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
