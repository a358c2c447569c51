package cli

import (
	"github.com/goliatone/go-joalistay/logging"
	"github.com/goliatone/go-joalistay/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := cfg.OpenStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv, err := web.New(web.Options{
				Config:   cfg,
				Store:    store,
				Logger:   logger.Named("web"),
				Registry: registry,
			})
			if err != nil {
				return err
			}

			logger.Info("Starting front end", "backend", cfg.BaseURL, "storage", cfg.Storage.Driver)
			return srv.Listen(ctx, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config)")
	return cmd
}
