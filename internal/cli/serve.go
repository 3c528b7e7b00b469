package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nroshak/marketcheck/internal/logger"
)

func newServeCmd() *cobra.Command {
	var ingestEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			log := logger.For("serve")
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if ingestEvery > 0 {
				go func() {
					ticker := time.NewTicker(ingestEvery)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if _, err := a.ingester.Run(ctx); err != nil {
								log.Warn().Err(err).Msg("scheduled ingestion failed")
							}
						}
					}
				}()
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.BindAddr,
				Handler:           a.server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.HTTP.BindAddr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&ingestEvery, "ingest-every", 0, "refresh the catalog on this interval (0 = off)")
	return cmd
}
