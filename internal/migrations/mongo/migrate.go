package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	absencesrepo "barbersched/internal/absences/repository"
	barbersrepo "barbersched/internal/barbers/repository"
	bookingsrepo "barbersched/internal/bookings/repository"
	maintenancerepo "barbersched/internal/maintenance/repository"
	"barbersched/internal/migrations/mongo/validators"
	schedulesrepo "barbersched/internal/schedules/repository"
	"barbersched/pkg/logger"
)

var (
	SchedulesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "barber_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("barber_date_unique"),
		},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "available_slots.booking_ref", Value: 1}}},
		{Keys: bson.D{{Key: "absence_ref", Value: 1}}},
	}

	AbsencesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "barber_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "end_date", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "barber_id", Value: 1}, {Key: "booking_date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "booking_date", Value: 1}}},
	}

	BarbersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_available", Value: 1}, {Key: "auto_assignment_eligible", Value: 1}}},
	}

	// Expired locks are also taken over on acquire; the TTL index only keeps
	// the collection small.
	LocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() []collectionDef {
	return []collectionDef{
		{Name: schedulesrepo.CollectionName, Indexes: SchedulesIndexes, Validator: validators.ScheduleValidator},
		{Name: absencesrepo.CollectionName, Indexes: AbsencesIndexes, Validator: validators.AbsenceValidator},
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: barbersrepo.BarbersCollection, Indexes: BarbersIndexes},
		{Name: barbersrepo.ServicesCollection},
		{Name: maintenancerepo.CollectionName, Indexes: LocksIndexes},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", db.Name())
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Debug("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
