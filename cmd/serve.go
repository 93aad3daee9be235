package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/verdict/internal/api"
	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/config"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/engine"
	"github.com/darmiel/verdict/internal/service"
	"github.com/darmiel/verdict/internal/store"
	"github.com/darmiel/verdict/internal/tasks"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Verdict server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr == "" {
			addr = cfg.Server.Addr
		}

		log.Info().Str("type", cfg.Store.Type).Msg("Initializing store...")
		documents, results, closeStore, err := buildStore(cfg)
		if err != nil {
			return fmt.Errorf("building store: %w", err)
		}
		defer closeStore()

		auditor, err := buildAuditor(cfg)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close auditor")
			}
		}()

		eng := engine.New(engine.WithWorkers(cfg.Engine.Workers))
		manager := engine.NewManager(engine.PolicySet{})

		svc := service.NewEvalService(eng, manager, cfg.NormalizerOptions(), documents, results, auditor)

		taskManager := tasks.NewManager()
		if cfg.Retention.MaxAge > 0 {
			log.Info().
				Dur("max_age", cfg.Retention.MaxAge).
				Dur("interval", cfg.Retention.SweepInterval).
				Msg("Registering results retention task...")
			taskManager.Register(
				tasks.ResultsRetentionTaskName,
				cfg.Retention.SweepInterval,
				tasks.NewResultsRetentionTask(results, cfg.Retention.MaxAge),
			)
		}

		srv := api.NewServer(svc, taskManager, auditor)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes([]byte(cfg.Server.SigningKey)),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func buildStore(cfg *config.Config) (core.DocumentStore, core.ResultStore, func(), error) {
	switch cfg.Store.Type {
	case "sqlite":
		sqliteCfg, err := cfg.Store.SQLite()
		if err != nil {
			return nil, nil, nil, err
		}
		s, err := store.NewSQLiteStore(sqliteCfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := s.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close store")
			}
		}
		return s, s, closeFn, nil
	default:
		s := store.NewInMemoryStore()
		return s, s, func() {}, nil
	}
}

func buildAuditor(cfg *config.Config) (core.Auditor, error) {
	if !cfg.Audit.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Audit.Type {
	case "file":
		fileCfg, err := cfg.Audit.File()
		if err != nil {
			return nil, err
		}
		return audit.NewFileAuditor(fileCfg.Path)
	default:
		return audit.NewInMemoryAuditor(), nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides config)")
}
