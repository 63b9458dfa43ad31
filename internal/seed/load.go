package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/pkg/logger"
)

// EventSink accepts events, either a store or the running service.
type EventSink interface {
	AppendEvent(ctx context.Context, e model.Event) error
}

// Counts tallies an event load.
type Counts struct {
	Created   int
	Duplicate int
	Failed    int
}

// LoadReference writes the fleet's schedule, sites, drivers and vehicles.
func LoadReference(ctx context.Context, s repository.Seeder, f Fleet) error {
	if err := s.PutSchedule(ctx, f.Schedule); err != nil {
		return fmt.Errorf("put schedule: %w", err)
	}
	for _, site := range f.Sites {
		if err := s.PutSite(ctx, site); err != nil {
			return fmt.Errorf("put site %s: %w", site.ID, err)
		}
	}
	for _, d := range f.Drivers {
		if err := s.PutDriver(ctx, d); err != nil {
			return fmt.Errorf("put driver %s: %w", d.ID, err)
		}
	}
	for _, v := range f.Vehicles {
		if err := s.PutVehicle(ctx, v); err != nil {
			return fmt.Errorf("put vehicle %s: %w", v.ID, err)
		}
	}
	logger.Named("seed").Info(ctx, "reference data loaded",
		logger.String("company", f.Schedule.CompanyID),
		logger.Int("sites", len(f.Sites)),
		logger.Int("drivers", len(f.Drivers)))
	return nil
}

// LoadEvents appends events using workers concurrent senders. Replays count
// as duplicates so a second run over the same target is harmless. Failures are
// counted and the first one is returned once every event has been tried.
func LoadEvents(ctx context.Context, sink EventSink, events []model.Event, workers int) (Counts, error) {
	if workers <= 0 {
		workers = 1
	}
	var (
		created, duplicate, failed atomic.Int64
		firstErr                   error
		errOnce                    sync.Once
		wg                         sync.WaitGroup
	)
	ch := make(chan model.Event, workers*2)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range ch {
				err := sink.AppendEvent(ctx, e)
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, repository.ErrDuplicateEvent):
					duplicate.Add(1)
				default:
					failed.Add(1)
					errOnce.Do(func() { firstErr = fmt.Errorf("append event %s: %w", e.ID, err) })
				}
			}
		}()
	}

feed:
	for _, e := range events {
		select {
		case <-ctx.Done():
			break feed
		case ch <- e:
		}
	}
	close(ch)
	wg.Wait()

	c := Counts{Created: int(created.Load()), Duplicate: int(duplicate.Load()), Failed: int(failed.Load())}
	if err := ctx.Err(); err != nil {
		return c, err
	}
	logger.Named("seed").Info(ctx, "events loaded",
		logger.Int("created", c.Created),
		logger.Int("duplicate", c.Duplicate),
		logger.Int("failed", c.Failed))
	return c, firstErr
}
