package cron

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sunlend/solarqual/internal/alerting"
	"github.com/sunlend/solarqual/internal/config"
	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/metrics"
	"github.com/sunlend/solarqual/internal/storage"
)

const (
	jobName = "refresh_snapshots"
	lockKey = int64(42)
)

// nextRunTime interprets the interval setting as either integer seconds or a
// standard cron expression, falling back to 5 minutes.
func nextRunTime(setting string, lastRun time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(lastRun)
	}
	return lastRun.Add(5 * time.Minute)
}

// refreshAll re-runs the provider chain for every state+county pair that has
// a stored snapshot, so cached electricity data never goes stale forever.
func refreshAll(ctx context.Context, st storage.Storage, svc *electricity.Service) (int, []alerting.Failure) {
	snaps, err := st.ListSnapshots(ctx)
	if err != nil {
		return 0, []alerting.Failure{{Target: "snapshots", Error: err.Error()}}
	}

	var failures []alerting.Failure
	for _, snap := range snaps {
		loc := &location.Location{StateCode: snap.StateCode, County: snap.County}
		target := snap.StateCode + "/" + snap.County
		p, err := svc.Refresh(ctx, loc)
		switch {
		case err != nil:
			log.Printf("cron: refresh %s failed: %v", target, err)
			failures = append(failures, alerting.Failure{Target: target, Error: err.Error()})
		case p == nil:
			log.Printf("cron: refresh %s found no data", target)
			failures = append(failures, alerting.Failure{Target: target, Error: "all sources exhausted"})
		}
	}
	return len(snaps), failures
}

// Run starts the snapshot refresh worker. It uses a Postgres pgxpool backend
// and advisory locks so that in a multi-instance deployment only one worker
// executes the job.
func Run(ctx context.Context, cfg config.Config, driver, dsn string) error {
	if driver == "" {
		driver = "postgrespool"
	}
	if driver != "postgrespool" {
		return fmt.Errorf("cron worker requires SOLARQUAL_DB_DRIVER=postgrespool (got %q)", driver)
	}

	st, err := storage.Open(ctx, storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	pg, ok := st.(*storage.PostgresPoolStorage)
	if !ok {
		return fmt.Errorf("storage driver %q is not PostgresPoolStorage", driver)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	chain := electricity.NewChain(electricity.Deps{Client: client, EIAAPIKey: cfg.EIAAPIKey}, cfg.ScrapeTimeout, cfg.StatTimeout)
	svc := electricity.NewServiceWithStorage(chain, st, cfg.SnapshotTTL)

	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())

	// Initial interval from env or default; the settings table can override
	// it at runtime. Accepts integer seconds or a cron expression.
	intervalSetting := "3600"
	if raw := os.Getenv("SOLARQUAL_CRON_INTERVAL_SECONDS"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" {
		intervalSetting = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	nextRun := time.Now()

	log.Printf("cron: worker starting, initial setting=%q driver=%s", intervalSetting, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" && val != intervalSetting {
				log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = nextRunTime(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			gotLock, err := pg.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("cron: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = nextRunTime(intervalSetting, time.Now())
				continue
			}
			if !gotLock {
				log.Printf("cron: advisory lock held by another worker, skipping run")
				nextRun = nextRunTime(intervalSetting, time.Now())
				continue
			}

			var total int
			var failures []alerting.Failure
			func() {
				defer func() {
					if _, err := pg.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("cron: release advisory lock failed: %v", err)
					}
				}()
				total, failures = refreshAll(ctx, st, svc)
			}()

			var runErr error
			if len(failures) > 0 {
				runErr = fmt.Errorf("%d of %d snapshot refreshes failed", len(failures), total)
			}

			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := pg.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
				if err := alerter.SendJobAlert(ctx, alerting.JobAlert{
					JobName:       jobName,
					TotalCount:    total,
					SuccessCount:  total - len(failures),
					FailedCount:   len(failures),
					Duration:      dur,
					FailedDetails: failures,
					Timestamp:     started,
				}); err != nil {
					log.Printf("cron: send alert failed: %v", err)
				}
			} else {
				log.Printf("cron: job %s refreshed %d snapshots (duration=%s)", jobName, total, dur)
			}

			nextRun = nextRunTime(intervalSetting, time.Now())
		}
	}
}
