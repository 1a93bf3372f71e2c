package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/listkeeper/internal/core/api"
	"github.com/solatis/listkeeper/internal/core/auth"
	"github.com/solatis/listkeeper/internal/core/config"
	"github.com/solatis/listkeeper/internal/core/db"
	"github.com/solatis/listkeeper/internal/core/server"
	"github.com/solatis/listkeeper/internal/playlist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "HTTP server host")
	serveCmd.Flags().Int("port", 0, "HTTP server port")
	serveCmd.Flags().Bool("no-auth", false, "disable API key authentication (development only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	noAuth, _ := cmd.Flags().GetBool("no-auth")

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	store, err := db.NewStore(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	engine := newEngine(cfg, log)
	refresher := playlist.NewRefresher(engine, store, log)

	service, err := api.NewService(store, engine, refresher, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	var authMiddleware func(http.Handler) http.Handler
	if noAuth {
		log.Warn().Msg("API key authentication disabled")
	} else {
		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("no HMAC secrets configured (set LK_HMAC_SECRET environment variable)")
		}
		authMiddleware = auth.NewAuthenticator(secrets, store.Queries(), log).Middleware()
	}

	httpServer, err := server.NewHTTPServer(cfg.Server, service.Router(authMiddleware))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info().Str("version", Version).
		Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).
		Msg("starting listkeeper API")

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info().Msg("shutting down gracefully")
		return httpServer.Shutdown(context.Background())
	}
}
