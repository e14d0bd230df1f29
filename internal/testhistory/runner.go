package testhistory

import (
	"context"
	"fmt"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	"github.com/burns-20/bwrank/pkg/logger"
)

// Run generates a history, verifies it and appends it to store.
func Run(ctx context.Context, cfg Config, store repository.Store, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Nop()
	}
	log.Info(ctx, "generating synthetic history",
		logger.Int("servers", len(cfg.Servers)),
		logger.Int("players", cfg.Players),
		logger.Int("days", cfg.Days),
	)

	obs, stats, err := Generate(cfg)
	if err != nil {
		return Stats{}, fmt.Errorf("generate history: %w", err)
	}
	if err := Verify(obs); err != nil {
		return stats, err
	}
	if err := store.Append(ctx, obs...); err != nil {
		return stats, fmt.Errorf("store history: %w", err)
	}

	log.Info(ctx, "synthetic history written",
		logger.Int("observations", stats.Observations),
		logger.Int("race_changes", stats.RaceChanges),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}
