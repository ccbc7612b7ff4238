package main

import (
	"context"
	"time"

	"barbersched/internal/bootstrap"
	"barbersched/pkg/actor"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
)

const JobName = "schedule-maintenance"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher := bootstrap.NewPublisher(cfg, JobName)
	defer publisher.Close()
	services := bootstrap.Build(cfg, publisher)

	ctx = actor.WithActor(ctx, actor.System(JobName))
	report, err := services.Maintenance.RunMaintenance(ctx)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			cfg.Log.Info("Maintenance already running elsewhere, nothing to do")
			return
		}
		cfg.Log.Fatal("Maintenance job failed", "error", err)
	}
	cfg.Log.Info("Maintenance job completed",
		"schedules_deleted", report.SchedulesDeleted,
		"schedules_ensured", report.Init.SchedulesEnsured,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
}
