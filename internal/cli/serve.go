package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"financehistory/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read API",
		Long: `Start the HTTP read API.

Endpoints:
  GET /health
  GET /instruments/?date_interval=<ISO 8601 interval>&url=<instrument>[&url=...][&format=csv|json]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := newService(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			handler := api.NewInstrumentHandler(svc.coord, log)
			// a query may retry every request of a batch
			writeTimeout := 4*cfg.RequestTimeout + 30*time.Second
			server := api.NewServer(cfg.Port, api.NewRouter(handler, log), writeTimeout, log)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("Received interrupt signal, shutting down...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 5000, "listen port, overrides PORT")
	return cmd
}
