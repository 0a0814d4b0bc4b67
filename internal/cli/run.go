package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/balanza/internal/config"
	"github.com/roach88/balanza/internal/engine"
	"github.com/roach88/balanza/internal/identity"
	"github.com/roach88/balanza/internal/janitor"
	"github.com/roach88/balanza/internal/metrics"
	"github.com/roach88/balanza/internal/notify"
	"github.com/roach88/balanza/internal/server"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	HTTP bool

	// Notifier overrides the configured notifiers (for testing).
	Notifier engine.Notifier
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the reminder engine for an owner",
		Long: `Start the reminder engine for one owner.

The engine loads the owner's pending reminders, sleeps until the next one is
due and sends a notification through the configured notifiers. The store is
re-read periodically so reminders added by other processes are picked up.
Optionally serves an HTTP status surface and runs the prune janitor.

Example:
  balanza run --db ./balanza.db --owner 1
  balanza run --config ./balanza.yaml --http`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.HTTP, "http", false, "serve the HTTP status surface (overrides http.enabled)")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.HTTP {
		cfg.HTTP.Enabled = true
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := requireOwner(ctx, cfg, st)
	if err != nil {
		return err
	}

	notifier := opts.Notifier
	if notifier == nil {
		n, closeNotifier, err := buildNotifier(cfg, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to configure notifier", err)
		}
		defer closeNotifier()
		notifier = n
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(metrics.DefaultNamespace, reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	lookup := identity.NewCachedLookup(st, identity.Config{
		Size: cfg.Identity.CacheSize,
		TTL:  cfg.Identity.CacheTTL,
	})

	eng := engine.New(ctx, owner.ID, st, lookup, notifier,
		engine.WithRefreshInterval(cfg.Scheduler.RefreshInterval),
		engine.WithEmptyQueuePollInterval(cfg.Scheduler.EmptyPollInterval),
		engine.WithMaxDispatchWait(cfg.Scheduler.MaxDispatchWait),
		engine.WithStoreTimeout(cfg.Scheduler.StoreTimeout),
		engine.WithObserver(m.ForOwner(owner.ID)),
		engine.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		srv := server.New(server.Config{
			Addr:            cfg.HTTP.Addr,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		}, eng, reg, logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	if cfg.Janitor.Enabled {
		j, err := janitor.New(st, janitor.Config{
			Schedule:  cfg.Janitor.Schedule,
			Retention: cfg.Janitor.Retention,
		}, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to configure janitor", err)
		}
		g.Go(func() error { return j.Run(gctx) })
	}

	logger.Info("engine starting", "owner_id", owner.ID, "email", owner.Email, "db", cfg.Database.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder engine started for %s.\n", owner.Email)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	eng.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		eng.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	logger.Info("engine stopped gracefully")
	return nil
}

// buildNotifier assembles the configured notifiers. The returned func
// releases any connections.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (engine.Notifier, func(), error) {
	var (
		fanout  notify.Fanout
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, kind := range cfg.Notifier.Kinds {
		switch kind {
		case config.NotifierLog:
			fanout = append(fanout, notify.NewLog(logger))
		case config.NotifierSMTP:
			s := cfg.Notifier.SMTP
			n, err := notify.NewSMTP(notify.SMTPConfig{
				Host:     s.Host,
				Port:     s.Port,
				Username: s.Username,
				Password: s.Password,
				From:     s.From,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			fanout = append(fanout, n)
		case config.NotifierNATS:
			nc, err := notify.DialNATS(cfg.Notifier.NATS.URL)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, func() { _ = nc.Drain() })
			logger.Info("connected to NATS", "url", cfg.Notifier.NATS.URL)
			fanout = append(fanout, notify.NewNATS(nc, cfg.Notifier.NATS.SubjectPrefix))
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown notifier kind: %s", kind)
		}
	}

	if len(fanout) == 1 {
		return fanout[0], closeAll, nil
	}
	return fanout, closeAll, nil
}

