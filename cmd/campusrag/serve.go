package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/campusrag/api"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			engine, cleanup, err := a.chatEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			handler := api.NewServer(engine, a.logger, api.WithLessons(s), api.WithAPIKey(apiKey))
			srv := &http.Server{
				Addr:              ":" + a.cfg.Server.Port,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("API server listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Require this bearer token on API requests")
	return cmd
}
