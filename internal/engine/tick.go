// Package engine is the settlement economy core: the entity arena, the
// building state machine, flag scheduling and the tick loop driving them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine drives a game forward one tick at a time.
type Engine struct {
	Game     *Game
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval
	MaxTicks uint32        // Stop after this many ticks; 0 runs until cancelled

	// Callbacks run after a successful tick.
	OnTick func(tick uint32)
	// OnSave runs every SaveEvery ticks.
	OnSave    func(tick uint32) error
	SaveEvery uint32

	// mu lets readers on other goroutines see the game between ticks.
	mu sync.RWMutex
	// err holds the fault that halted the loop, if any. Guarded by mu.
	err error
}

// NewEngine creates an engine for g with default settings.
func NewEngine(g *Game) *Engine {
	return &Engine{
		Game:     g,
		Speed:    1.0,
		Interval: 50 * time.Millisecond,
	}
}

// Run steps the game until ctx is cancelled, MaxTicks is reached or a tick
// faults. A fault is logged, kept for Halted and returned.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("economy engine started", "tick", e.Game.Tick, "speed", e.Speed)
	defer func() { slog.Info("economy engine stopped", "tick", e.Game.Tick) }()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if e.MaxTicks > 0 && e.Game.Tick >= e.MaxTicks {
			return nil
		}
		speed := e.CurrentSpeed()
		if speed <= 0 {
			// Paused.
			if !sleepCtx(ctx, 100*time.Millisecond) {
				return nil
			}
			continue
		}

		start := time.Now()
		if err := e.Step(); err != nil {
			return err
		}

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target && !sleepCtx(ctx, target-elapsed) {
			return nil
		}
	}
}

// Step advances the game by one tick and runs the callbacks.
func (e *Engine) Step() error {
	e.mu.Lock()
	err := e.Game.Update()
	if err != nil {
		e.err = err
	}
	tick := e.Game.Tick
	e.mu.Unlock()
	if err != nil {
		slog.Error("economy halted", "tick", tick, "error", err)
		return err
	}
	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if e.OnSave != nil && e.SaveEvery > 0 && tick%e.SaveEvery == 0 {
		if err := e.OnSave(tick); err != nil {
			// A failed save does not halt the economy.
			slog.Warn("save failed", "tick", tick, "error", err)
		}
	}
	return nil
}

// View runs fn with the game held still. fn must not modify the game.
func (e *Engine) View(fn func(g *Game)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.Game)
}

// Halted returns the fault that stopped the engine, or nil.
func (e *Engine) Halted() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// SetSpeed changes the speed multiplier of a running engine.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.Speed = speed
	e.mu.Unlock()
}

// CurrentSpeed returns the speed multiplier.
func (e *Engine) CurrentSpeed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Speed
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// GameTime renders a tick count as minutes and seconds of game time at
// the classic pace of 50 ticks per second.
func GameTime(tick uint32) string {
	seconds := tick / 50
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
