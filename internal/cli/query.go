package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"financehistory/internal/api"
	"financehistory/internal/keystat"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		interval string
		urls     []string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one key stats query and print the result",
		Example: `  financehistory query --interval 2015-03-01/2015-03-15 \
    --url http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04O2R --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != api.FormatCSV && format != api.FormatJSON {
				return fmt.Errorf("unknown format %q, want csv or json", format)
			}
			iv, err := keystat.ParseInterval(interval)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return errors.New("no instruments given as input")
			}

			cfg, log, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := newService(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.coord.Query(ctx, iv, urls)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				return errors.New("could not find instrument(s)")
			}
			return api.Write(cmd.OutOrStdout(), format, stats)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "date or date interval, e.g. 2015-03-01/2015-03-15")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "instrument URL (repeatable)")
	cmd.Flags().StringVar(&format, "format", api.FormatCSV, "output format: csv or json")
	cmd.MarkFlagRequired("interval")
	return cmd
}
