package main

import (
	absenceshandler "barbersched/internal/absences/handler"
	assignmenthandler "barbersched/internal/assignment/handler"
	"barbersched/internal/bootstrap"
	bookingsynchandler "barbersched/internal/bookingsync/handler"
	maintenancehandler "barbersched/internal/maintenance/handler"
	maintenance "barbersched/internal/maintenance/service"
	scheduleshandler "barbersched/internal/schedules/handler"
	"barbersched/pkg/app"
	"barbersched/pkg/config"
)

const ServiceName = "scheduling"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Scheduling service")
	publisher := bootstrap.NewPublisher(cfg, ServiceName)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()
	services := bootstrap.Build(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		scheduleshandler.NewScheduleHandler(services.Schedules, cfg.Log),
		absenceshandler.NewAbsenceHandler(services.Absences, cfg.Log),
		assignmenthandler.NewAssignmentHandler(services.Assignment, cfg.Log),
		bookingsynchandler.NewBookingSyncHandler(services.BookingSync, cfg.Log),
		maintenancehandler.NewMaintenanceHandler(services.Maintenance, cfg.Log),
	)
	serverApp.AddWorker(maintenance.NewTicker(services.Maintenance, cfg).Run)
	serverApp.Run()
}
