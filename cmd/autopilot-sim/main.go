// cmd/autopilot-sim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/engine"
	"github.com/opd-ai/go-autopilot/pkg/health"
	"github.com/opd-ai/go-autopilot/pkg/journal"
	"github.com/opd-ai/go-autopilot/pkg/logging"
	"github.com/opd-ai/go-autopilot/pkg/notify"
	"github.com/opd-ai/go-autopilot/pkg/render"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to a JSON configuration file")
	createDefault := flag.Bool("default", false, "Write the default configuration to -config and exit")
	healthAddr := flag.String("health-addr", "", "Serve /health and /ready on this address")
	maxTicks := flag.Int("ticks", 0, "Stop after this many ticks (0 uses simulation.maxTicks)")
	renderEvery := flag.Int("render-every", 0, "Draw an ASCII map every N ticks (0 disables)")
	flag.Parse()

	if *createDefault {
		if *configPath == "" {
			logger.Error(ctx, "No configuration path given", nil, "flag", "-config")
			os.Exit(1)
		}
		if err := config.Save(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	opts := options{healthAddr: *healthAddr, maxTicks: *maxTicks, renderEvery: *renderEvery}
	if err := run(ctx, cfg, logger, opts); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		os.Exit(1)
	}
}

type options struct {
	healthAddr  string
	maxTicks    int
	renderEvery int
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts options) error {
	world := engine.NewWorld(cfg, logger)
	defer world.Close()

	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewSimulationHealthCheck(world.Running))
	healthChecker.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	var store *journal.Store
	if cfg.Journal.Enabled {
		var err error
		store, err = journal.Open(cfg.Journal, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		store.Attach(world.EventBus)
		healthChecker.AddCheck(health.NewJournalHealthCheck(store))
	}

	dispatcher := notify.NewDispatcher(cfg.Notify, world.EventBus, world, world, logger)
	world.SetNotifier(dispatcher)
	healthChecker.AddCheck(health.NewDeliveryHealthCheck(dispatcher.State))

	if err := world.LoadScenario(cfg.Scenario); err != nil {
		return err
	}

	if opts.healthAddr != "" {
		srv := startHealthServer(ctx, logger, healthChecker, opts.healthAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maxTicks := opts.maxTicks
	if maxTicks <= 0 {
		maxTicks = cfg.Simulation.MaxTicks
	}
	world.StopWhenIdle = true

	if opts.renderEvery > 0 {
		renderer := render.NewTerminalRenderer(os.Stdout, 100, 30, cfg.Simulation.WorldSize/200)
		renderer.ClearScreen = true
		world.OnStep = func(w *engine.World) {
			if w.CurrentTick%uint64(opts.renderEvery) != 0 {
				return
			}
			state := w.Snapshot()
			renderer.Draw(state)
			if err := renderer.Present(state); err != nil {
				logger.Error(ctx, "Failed to draw map", err)
			}
		}
	}

	started := time.Now()
	ticks := world.Run(runCtx, maxTicks)
	logger.Info(ctx, "Simulation finished",
		"ticks", ticks,
		"simulated_seconds", float64(ticks)*world.TimeStep,
		"elapsed", time.Since(started).String(),
	)

	report(ctx, logger, world, store)
	return nil
}

func startHealthServer(ctx context.Context, logger *logging.Logger, checker *health.HealthChecker, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.LivenessHandler)
	mux.HandleFunc("/ready", checker.ReadinessHandler)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return srv
}

// report logs where every vessel ended up and what its occupants were told.
func report(ctx context.Context, logger *logging.Logger, world *engine.World, store *journal.Store) {
	state := world.Snapshot()
	for _, v := range state.Vessels {
		logger.Info(ctx, "Vessel",
			"vessel_id", v.ID,
			"name", v.Name,
			"x", v.Position.X,
			"y", v.Position.Y,
			"speed", v.Velocity.Length(),
			"posture", v.Posture.String(),
			"phase", v.Phase.String(),
			"engaged", v.Engaged,
			"outcome", v.Outcome.String(),
		)
		for _, msg := range world.Inbox(v.ID) {
			logger.Info(ctx, "Inbox",
				"vessel_id", v.ID,
				"occupant", msg.Occupant,
				"tick", msg.Tick,
				"text", msg.Text,
			)
		}
		if store == nil {
			continue
		}
		entries, err := store.History(uint64(v.ID))
		if err != nil {
			logger.Error(ctx, "Failed to read journal", err, "vessel_id", v.ID)
			continue
		}
		logger.Info(ctx, "Journal", "vessel_id", v.ID, "entries", len(entries))
	}
}
