package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	app "github.com/youss97/transportBackend/internal/app"
	"github.com/youss97/transportBackend/internal/seed"
	"github.com/youss97/transportBackend/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	now := time.Now()
	var (
		baseURL   = flag.String("url", "", "Base URL of a running service; empty runs an in-process service")
		dsn       = flag.String("dsn", "", "SQLite DSN to write reference data (and events when -url is empty) to")
		companyID = flag.String("company", seed.DefaultCompanyID, "Company identifier")
		drivers   = flag.Int("drivers", seed.DefaultDrivers, "Number of drivers")
		sites     = flag.Int("sites", seed.DefaultSites, "Number of priced sites")
		year      = flag.Int("year", now.Year(), "Year to generate")
		month     = flag.Int("month", int(now.Month()), "Month to generate")
		days      = flag.Int("days", seed.DefaultDays, "Working days to generate, from the 2nd")
		seedValue = flag.Uint64("seed", 1, "Random seed")
		workers   = flag.Int("workers", runtime.NumCPU(), "Concurrent senders")
		timeout   = flag.Duration("timeout", seed.DefaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	cfg := seed.Config{
		BaseURL:   *baseURL,
		CompanyID: *companyID,
		Drivers:   *drivers,
		Sites:     *sites,
		Year:      *year,
		Month:     *month,
		Days:      *days,
		Seed:      *seedValue,
		Workers:   *workers,
		Timeout:   *timeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := run(ctx, cfg, *dsn); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg seed.Config, dsn string) error {
	var store repository.Store = repository.NewMemoryStore()
	if dsn != "" {
		db, err := repository.OpenSQLite(dsn)
		if err != nil {
			return err
		}
		if store, err = repository.NewGormStore(ctx, db); err != nil {
			return err
		}
	}
	defer func() { _ = store.Close() }()

	var target seed.Target
	if cfg.BaseURL != "" {
		client := seed.NewClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
		if dsn == "" {
			logger.Get().Warn(ctx, "no -dsn given; the service must already hold the fleet's reference data")
		}
		target = client
	} else {
		svc := app.New(store)
		if err := svc.Start(ctx); err != nil {
			return err
		}
		defer svc.Stop()
		target = svc
	}

	var ref repository.Seeder
	if cfg.BaseURL == "" || dsn != "" {
		ref = store
	}
	rep, err := seed.Run(ctx, cfg, ref, target)
	if err != nil {
		return err
	}
	fmt.Printf("events: %d (created %d, duplicate %d, failed %d)\nranked drivers: %d\nduration: %s\n",
		rep.Events, rep.Created, rep.Duplicate, rep.Failed, rep.Ranked, rep.Duration)
	return nil
}
