package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve match scores and recommendations over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		addr := e.config.Server.Addr
		if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
			addr = flag
		}

		if !viper.GetBool("debug") {
			gin.SetMode(gin.ReleaseMode)
		}

		includeApplied, _ := cmd.Flags().GetBool("include-applied")
		service := newService(ctx, e, filterFlags{includeApplied: includeApplied})
		router := api.NewRouter(service, version, e.logger.Named("api"))

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			e.logger.Info("listening", zap.String("addr", addr), zap.String("version", version))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		timeout := e.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}

		e.logger.Info("shutting down", zap.Duration("timeout", timeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolP("include-applied", "f", false, "keep jobs the candidate already applied to")
}
