package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/serfworks/internal/api"
	"github.com/talgya/serfworks/internal/config"
	"github.com/talgya/serfworks/internal/engine"
	"github.com/talgya/serfworks/internal/metrics"
	"github.com/talgya/serfworks/internal/persistence"
)

func newRunCmd(cfgp **config.Config) *cobra.Command {
	var fresh bool
	var maxTicks uint32

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tick loop, resuming the latest save unless --fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *cfgp
			if cmd.Flags().Changed("ticks") {
				cfg.Sim.MaxTicks = maxTicks
			}
			return runGame(cmd.Context(), cfg, fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore existing saves and seed a new settlement")
	cmd.Flags().Uint32Var(&maxTicks, "ticks", 0, "stop at this tick (0 runs until interrupted)")
	return cmd
}

func runGame(parent context.Context, cfg *config.Config, fresh bool) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Save.DBPath), 0o755); err != nil {
		return err
	}
	db, err := persistence.Open(cfg.Save.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Save.DBPath)

	g, err := loadOrSeed(db, cfg, fresh)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		g.SetObserver(collector)
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	eng := engine.NewEngine(g)
	eng.Speed = float64(cfg.Sim.Speed)
	eng.Interval = cfg.Sim.TickInterval
	eng.MaxTicks = cfg.Sim.MaxTicks
	eng.SaveEvery = cfg.Save.Every
	eng.OnSave = func(tick uint32) error {
		if _, err := db.SaveGame(g); err != nil {
			return err
		}
		if cfg.Save.SnapshotDir == "" {
			return nil
		}
		return persistence.WriteSnapshot(persistence.SnapshotPath(cfg.Save.SnapshotDir, tick), g)
	}

	if cfg.API.Enabled {
		srv := &api.Server{Eng: eng, DB: db, Addr: cfg.API.Addr, AdminKey: cfg.API.AdminKey}
		srv.Start()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := eng.Run(ctx)

	// Final save, also after a fault so the broken state can be inspected.
	if _, err := db.SaveGame(g); err != nil {
		slog.Error("final save failed", "error", err)
	}
	return runErr
}

func loadOrSeed(db *persistence.DB, cfg *config.Config, fresh bool) (*engine.Game, error) {
	if !fresh {
		rec, err := db.LatestSave("")
		switch {
		case err == nil:
			g, err := db.LoadGame(rec.ID)
			if err != nil {
				return nil, fmt.Errorf("resume save %d: %w", rec.ID, err)
			}
			slog.Info("game resumed", "game", g.ID, "tick", g.Tick, "time", engine.GameTime(g.Tick))
			return g, nil
		case !errors.Is(err, persistence.ErrNoSave):
			return nil, err
		}
	}

	g := engine.NewGame(cfg.Sim.MapRadius, cfg.Sim.Players)
	if err := seedSettlement(g, cfg.Sim.Seed); err != nil {
		return nil, err
	}
	slog.Info("settlement seeded", "game", g.ID, "radius", cfg.Sim.MapRadius, "players", len(cfg.Sim.Players))
	return g, nil
}
