package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/manifest"
	"github.com/spindle-dev/spindle/internal/props"
	"github.com/spindle-dev/spindle/internal/runtime"
	"github.com/spindle-dev/spindle/internal/store"
	"github.com/spindle-dev/spindle/internal/trigger"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Fire     bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Deploy and run one component instance",
		Long: `Deploy the instance described by a manifest and run it until
interrupted.

The instance's durable state lives in a SQLite database (created if it
doesn't exist). Timer and HTTP triggers start according to the
manifest; emitted events are written to stdout as JSON lines.

Example:
  spindle run --db ./spindle.db ./deploy/heartbeat.yaml
  spindle run --db /tmp/test.db ./deploy/webhook.yaml --verbose
  spindle run --db /tmp/test.db ./deploy/job.yaml --fire`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstance(opts, reg, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Fire, "fire", false, "dispatch one manual event after activation")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInstance(opts *RunOptions, reg *component.Registry, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	m, err := manifest.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	def, ok := reg.Lookup(m.Owner, m.Component)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown component %q (registered: %v)", m.Component, reg.Names(m.Owner)))
	}

	resolved, err := props.Resolve(def.Props, m.Props)
	if err != nil {
		return WrapExitError(ExitFailure, "prop resolution failed", err)
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Emitted events go to stdout as JSON lines, one per delivery.
	enc := json.NewEncoder(cmd.OutOrStdout())
	sink := runtime.SinkFunc(func(_ context.Context, ev runtime.Event) error {
		return enc.Encode(ev)
	})

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	inst, err := runtime.NewInstance(ctx, m.Instance, def, resolved, st, sink,
		runtime.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create instance", err)
	}

	if err := inst.Activate(ctx); err != nil {
		return WrapExitError(ExitFailure, "activation failed", err)
	}

	var timerDisp *trigger.TimerDispatcher
	if m.Timer != nil {
		timerDisp, err = trigger.NewTimerDispatcher(*m.Timer, inst, trigger.WithTimerLogger(logger))
		if err != nil {
			deactivate(ctx, inst)
			return WrapExitError(ExitCommandError, "invalid timer config", err)
		}
		timerDisp.Start(ctx)
		slog.Info("timer started", "interval_seconds", m.Timer.IntervalSeconds, "cron", m.Timer.Cron)
	}

	var httpServer *http.Server
	if inst.EndpointID() != "" {
		httpServer = startHTTPServer(m.HTTP, inst, logger)
		fmt.Fprintf(cmd.OutOrStdout(), "HTTP endpoint: /%s\n", inst.EndpointID())
	}

	if opts.Fire {
		if err := inst.Dispatch(trigger.ManualEvent{}); err != nil {
			slog.Warn("manual fire rejected", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(cmd.OutOrStdout(), "Instance running. Press Ctrl-C to stop.")

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	if timerDisp != nil {
		timerDisp.Stop()
	}
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		shutdownCancel()
	}
	deactivate(context.Background(), inst)

	slog.Info("instance stopped gracefully")
	return nil
}

// startHTTPServer wires the instance's endpoint into an HTTP listener.
func startHTTPServer(cfg *manifest.HTTPConfig, inst *runtime.Instance, logger *slog.Logger) *http.Server {
	var dispOpts []trigger.HTTPOption
	dispOpts = append(dispOpts, trigger.WithHTTPLogger(logger))
	listen := ":8080"
	if cfg != nil {
		if cfg.Listen != "" {
			listen = cfg.Listen
		}
		if cfg.ResponseTimeoutSeconds > 0 {
			dispOpts = append(dispOpts,
				trigger.WithResponseTimeout(time.Duration(cfg.ResponseTimeoutSeconds)*time.Second))
		}
	}

	disp := trigger.NewHTTPDispatcher(dispOpts...)
	disp.Register(inst.EndpointID(), inst)

	srv := &http.Server{Addr: listen, Handler: disp}
	go func() {
		slog.Info("http listener starting", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http listener error", "error", err)
		}
	}()
	return srv
}

func deactivate(ctx context.Context, inst *runtime.Instance) {
	if err := inst.Deactivate(ctx); err != nil {
		slog.Error("deactivation failed", "error", err)
	}
}
