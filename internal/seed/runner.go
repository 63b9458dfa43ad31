package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/pkg/logger"
)

// Report summarizes one run.
type Report struct {
	Counts
	Events   int
	Ranked   int
	Duration time.Duration
}

// Target is where a run sends events and reads the ranking back.
type Target interface {
	EventSink
	Ranker
}

// Run generates the fleet, loads reference data into ref when it is not nil,
// sends every event to t and verifies the ranking t serves.
func Run(ctx context.Context, cfg Config, ref repository.Seeder, t Target) (Report, error) {
	start := time.Now()
	log := logger.Named("seed")

	f, err := Generate(cfg)
	if err != nil {
		return Report{}, err
	}
	log.Info(ctx, "fleet generated",
		logger.String("company", cfg.CompanyID),
		logger.Int("drivers", len(f.Drivers)),
		logger.Int("events", len(f.Events)),
		logger.Any("seed", cfg.Seed))

	if ref != nil {
		if err := LoadReference(ctx, ref, f); err != nil {
			return Report{}, fmt.Errorf("load reference data: %w", err)
		}
	}

	rep := Report{Events: len(f.Events)}
	rep.Counts, err = LoadEvents(ctx, t, f.Events, cfg.Workers)
	if err != nil {
		return rep, fmt.Errorf("load events: %w", err)
	}

	if err := Verify(ctx, t, cfg, f); err != nil {
		return rep, err
	}
	rep.Ranked = len(expectedRanking(f))
	rep.Duration = time.Since(start)
	log.Info(ctx, "ranking verified",
		logger.Int("ranked", rep.Ranked),
		logger.Duration("duration", rep.Duration))
	return rep, nil
}
