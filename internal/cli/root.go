// Package cli implements the joalistay command line. Commands share one
// runtime: configuration, the persisted session store, a zap logger and a
// joalistay.Client built on top of them.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/activitymap"
	"github.com/goliatone/go-joalistay/config"
	"github.com/goliatone/go-joalistay/logging"
	"github.com/goliatone/go-joalistay/services"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/spf13/cobra"
)

// Options lets callers redirect output, mostly for tests.
type Options struct {
	Out io.Writer
	Err io.Writer
}

type globalFlags struct {
	configPath string
	envFiles   []string
	debug      bool
	logLevel   string
	output     string
}

// runtime is what a command needs to talk to the backend.
type runtime struct {
	cfg      *config.Config
	store    storage.Store
	logger   *logging.ZapLogger
	client   *joalistay.Client
	services *services.Services
	out      io.Writer
	output   string
}

func (r *runtime) Close() error {
	_ = r.logger.Sync()
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// NewRootCommand assembles the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "joalistay",
		Short:         "JoaliStay client: sessions, bookings and resort administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.BoolVar(&flags.debug, "debug", false, "dump gateway traffic")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&flags.output, "output", "o", outputTable, "output format (table, json)")

	setup := func(cmd *cobra.Command) (*runtime, error) {
		return newRuntime(cmd.Context(), flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	root.AddCommand(
		newLoginCommand(setup),
		newLogoutCommand(setup),
		newWhoamiCommand(setup),
		newRefreshCommand(setup),
		newResetPasswordCommand(setup),
		newOrdersCommand(setup),
		newOrgsCommand(setup),
		newServicesCommand(setup),
		newUsersCommand(setup),
		newServeCommand(flags),
	)

	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

type setupFunc func(cmd *cobra.Command) (*runtime, error)

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.envFiles...)
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Debug = true
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, flags *globalFlags, out, errOut io.Writer) (*runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	// a memory session would not survive the process
	if cfg.Storage.Driver == storage.DriverMemory {
		cfg.Storage.Driver = storage.DriverSQLite
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	logger = logger.Named("cli")

	store, err := cfg.OpenStorage(ctx)
	if err != nil {
		return nil, err
	}

	// one command may hit several rejected calls, tell the user once
	var expired sync.Once
	client := joalistay.NewClient(cfg, store).
		WithLogger(logger).
		WithDebug(cfg.Debug).
		WithActivitySink(activitymap.NewLogSink(logger, activitymap.WithChannel("cli"))).
		WithFallbackNavigator(joalistay.NavigatorFunc(func(path string) {
			expired.Do(func() {
				fmt.Fprintln(errOut, "Session expired, run `joalistay login` again.")
			})
		}))

	return &runtime{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		client:   client,
		services: services.New(client.Gateway).WithLogger(logger),
		out:      out,
		output:   flags.output,
	}, nil
}

// withRuntime wraps a command body with runtime setup and teardown.
func withRuntime(setup setupFunc, fn func(cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt, args)
	}
}

// requireSession fails early when nobody is logged in.
func requireSession(ctx context.Context, rt *runtime) (joalistay.Session, error) {
	session := rt.client.Sessions.Snapshot(ctx)
	if session.IsAnonymous() {
		return session, errors.New("not logged in, run `joalistay login` first", errors.CategoryAuth)
	}
	return session, nil
}
