package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/backup"
	"github.com/mesh-intelligence/checklist/internal/httpapi"
	"github.com/mesh-intelligence/checklist/pkg/checklist"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: "Serve the checklist HTTP API. When backup.schedule is set, exports also\n" +
			"run on that schedule while the server is up.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.withSession(func(s *session) error {
				return s.serve(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

func (s *session) serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.config.Server.Addr
	}
	prefs, err := s.settings(ctx)
	if err != nil {
		return err
	}

	if s.config.Backup.Schedule != "" {
		sched := backup.NewScheduler(s.backend, s.backupDir(), s.logger)
		if err := sched.Start(s.config.Backup.Schedule); err != nil {
			return err
		}
		defer sched.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.BuildRouter(httpapi.RouterDeps{
		Version:     checklist.Version,
		Repo:        s.repo,
		Settings:    prefs,
		Logger:      s.logger,
		CORSOrigins: s.config.Server.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end with ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
