// Package bootstrap builds the service graph shared by the binaries.
package bootstrap

import (
	absencesrepo "barbersched/internal/absences/repository"
	absences "barbersched/internal/absences/service"
	absencesvalidator "barbersched/internal/absences/validator"
	assignment "barbersched/internal/assignment/service"
	barbersrepo "barbersched/internal/barbers/repository"
	bookingsrepo "barbersched/internal/bookings/repository"
	bookingsync "barbersched/internal/bookingsync/service"
	maintenancerepo "barbersched/internal/maintenance/repository"
	maintenance "barbersched/internal/maintenance/service"
	schedulesrepo "barbersched/internal/schedules/repository"
	schedules "barbersched/internal/schedules/service"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	"barbersched/pkg/events"
	"barbersched/pkg/kafka"
	kafka_config "barbersched/pkg/kafka/config"
	kafka_middleware "barbersched/pkg/kafka/middleware"
	"barbersched/pkg/validation"
)

type Services struct {
	Schedules   schedules.ScheduleService
	Absences    absences.AbsenceService
	Assignment  assignment.AssignmentService
	BookingSync bookingsync.BookingSyncService
	Maintenance maintenance.MaintenanceService

	Publisher events.Publisher
}

// NewPublisher returns a Kafka publisher for the events topic, or a no-op
// publisher when Kafka is disabled.
func NewPublisher(cfg *config.Config, source string) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, domain events are logged only")
		return events.NewNoopPublisher(cfg.Log)
	}

	kafkaCfg := KafkaConfig(cfg)
	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", cfg.EventsTopic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}
	return events.NewKafkaPublisher(producer, source)
}

func KafkaConfig(cfg *config.Config) *kafka_config.Config {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	return kafkaCfg
}

// Build wires every service over the Mongo repositories. cfg.SetMongo must
// have been called.
func Build(cfg *config.Config, publisher events.Publisher) *Services {
	clk := clock.Real{}
	v := validation.New()

	scheduleRepo := schedulesrepo.NewMongoScheduleRepository(cfg)
	absenceRepo := absencesrepo.NewMongoAbsenceRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	barberRepo := barbersrepo.NewMongoBarberRepository(cfg)
	serviceRepo := barbersrepo.NewMongoServiceRepository(cfg)
	lockRepo := maintenancerepo.NewMongoLockRepository(cfg)

	store := schedules.NewStore(scheduleRepo, cfg)
	scheduleService := schedules.NewScheduleService(store, v, publisher, clk, cfg)

	assignmentService := assignment.NewAssignmentService(
		barberRepo,
		serviceRepo,
		bookingRepo,
		absenceRepo,
		scheduleService,
		v,
		cfg,
	)

	synchronizer := bookingsync.NewSynchronizer(store, bookingRepo, assignmentService, publisher, clk, cfg)
	bookingSyncService := bookingsync.NewBookingSyncService(synchronizer, bookingRepo, clk, cfg)

	absenceService := absences.NewAbsenceService(
		absenceRepo,
		store,
		bookingRepo,
		bookingRepo,
		synchronizer,
		absencesvalidator.NewAbsenceValidator(cfg.Log),
		publisher,
		clk,
		cfg,
	)

	maintenanceService := maintenance.NewMaintenanceService(
		store,
		barberRepo,
		bookingRepo,
		absenceRepo,
		lockRepo,
		publisher,
		clk,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return &Services{
		Schedules:   scheduleService,
		Absences:    absenceService,
		Assignment:  assignmentService,
		BookingSync: bookingSyncService,
		Maintenance: maintenanceService,
		Publisher:   publisher,
	}
}
