package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/service"
	"github.com/roach88/tioga/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	engine   engineFlags
	Listen   string
	Workers  int
	DB       string
	NoRecord bool

	// Listener overrides Listen (for testing).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(rootOpts, &ServeOptions{})
}

func newServeCommand(rootOpts *RootOptions, opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <model-dir>",
		Short: "Serve queries over HTTP",
		Long: `Load the model in model-dir and answer queries over HTTP until
interrupted. Every evaluation is appended to the evaluation log unless
--no-record is given.

Example:
  tioga serve ./models/gates --listen :7070
  curl -d '{"query": "refinement: Gate <= Spec"}' localhost:7070/api/query`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts, args[0])
		},
	}

	opts.engine.bind(cmd)
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent evaluations (default from config)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "evaluation log path (default from config)")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "do not write the evaluation log")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *ServeOptions, modelDir string) error {
	logger := rootOpts.logger()

	cfg, err := opts.engine.resolve(cmd, rootOpts.config())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid engine options", err)
	}
	if cmd.Flags().Changed("listen") {
		cfg.Service.Listen = opts.Listen
	}
	if cmd.Flags().Changed("workers") {
		cfg.Service.Workers = opts.Workers
	}

	logger.Info("loading model", "dir", modelDir)
	loaded, err := loader.LoadDir(modelDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading model", err)
	}
	logger.Info("model loaded", "automata", loaded.Automata, "hash", loaded.Model.Hash())

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	ctx = ctxlog.WithLogger(ctx, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	engOpts := cfg.EngineOptions()
	srvOpts := []service.Option{
		service.WithWorkers(cfg.Service.Workers),
		service.WithLogger(logger),
	}
	if !opts.NoRecord {
		path := storePath(cmd, opts.DB, cfg)
		logger.Info("opening evaluation log", "path", path)
		st, err := store.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening evaluation log", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing evaluation log", "error", closeErr)
			}
		}()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "reading evaluation log", err)
		}
		if err := st.WriteModel(ctx, loaded.Model, last); err != nil {
			return WrapExitError(ExitCommandError, "recording model", err)
		}
		engOpts = append(engOpts, engine.WithClock(engine.NewClockAt(last)))
		srvOpts = append(srvOpts, service.WithStore(st))
	}

	srv := service.New(loaded.Model, engine.New(engOpts...), srvOpts...)

	l := opts.Listener
	if l == nil {
		if l, err = net.Listen("tcp", cfg.Service.Listen); err != nil {
			return WrapExitError(ExitCommandError, "listening", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", loaded.Model.Hash(), l.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.Serve(ctx, l); err != nil {
		return WrapExitError(ExitFailure, "service error", err)
	}
	logger.Info("service stopped gracefully")
	return nil
}
