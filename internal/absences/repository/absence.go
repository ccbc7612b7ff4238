package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	absenceserrors "barbersched/internal/absences/errors"
	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Absences"
)

// Decision is a status change recorded on an absence.
type Decision struct {
	To     model.AbsenceStatus
	By     string
	At     time.Time
	Reason string
}

type AbsenceRepository interface {
	Create(ctx context.Context, absence *model.Absence) error
	FindByID(ctx context.Context, id string) (*model.Absence, error)
	Find(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, error)
	Count(ctx context.Context, filter model.AbsenceFilter) (int64, error)
	// Transition applies decision only if the absence is currently in one of
	// from, and returns the updated absence. It fails with
	// ErrInvalidTransition otherwise.
	Transition(ctx context.Context, id string, from []model.AbsenceStatus, decision Decision) (*model.Absence, error)
	UpdateResolution(ctx context.Context, id, bookingRef string, status model.ResolutionStatus, note string, at time.Time) error
	// FindApproved returns approved absences overlapping [from, to], oldest
	// approval first. An empty barberID matches every barber.
	FindApproved(ctx context.Context, barberID string, from, to calendar.Day) ([]*model.Absence, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAbsenceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAbsenceRepository(cfg *config.Config) AbsenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAbsenceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", absenceserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoAbsenceRepository) Create(ctx context.Context, absence *model.Absence) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := time.Now().UTC().Truncate(time.Millisecond)
	absence.CreatedAt = ts
	absence.UpdatedAt = ts
	result, err := r.collection.InsertOne(ctx, absence)
	if err != nil {
		return fmt.Errorf("failed to create absence: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		absence.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAbsenceRepository) FindByID(ctx context.Context, id string) (*model.Absence, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var absence model.Absence
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&absence); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", absenceserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find absence: %w", err)
	}
	return &absence, nil
}

func buildFilter(filter model.AbsenceFilter) bson.M {
	query := bson.M{}
	if filter.BarberID != "" {
		query["barber_id"] = filter.BarberID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (r *mongoAbsenceRepository) Find(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(filter.Offset)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find absences: %w", err)
	}
	defer cursor.Close(ctx)

	var absences []*model.Absence
	if err := cursor.All(ctx, &absences); err != nil {
		return nil, fmt.Errorf("failed to decode absences: %w", err)
	}
	return absences, nil
}

func (r *mongoAbsenceRepository) Count(ctx context.Context, filter model.AbsenceFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count absences: %w", err)
	}
	return count, nil
}

func (r *mongoAbsenceRepository) Transition(ctx context.Context, id string, from []model.AbsenceStatus, decision Decision) (*model.Absence, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"status": decision.To, "updated_at": decision.At}
	switch decision.To {
	case model.AbsenceApproved:
		set["approved_by"] = decision.By
		set["approved_at"] = decision.At
	case model.AbsenceRejected:
		set["rejected_by"] = decision.By
		set["rejected_at"] = decision.At
		set["rejection_reason"] = decision.Reason
	}

	filter := bson.M{"_id": oid, "status": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var absence model.Absence
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&absence)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: %s to %s", absenceserrors.ErrInvalidTransition, id, decision.To)
		}
		return nil, fmt.Errorf("failed to update absence status: %w", err)
	}
	return &absence, nil
}

func (r *mongoAbsenceRepository) UpdateResolution(ctx context.Context, id, bookingRef string, status model.ResolutionStatus, note string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"affected_bookings.$[b].resolution_status": status,
		"affected_bookings.$[b].resolution_note":   note,
		"affected_bookings.$[b].resolved_at":       at,
		"updated_at":                               at,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []any{bson.M{"b.booking_ref": bookingRef}},
	})

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "affected_bookings.booking_ref": bookingRef}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to update booking resolution: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", absenceserrors.ErrBookingNotAffected, bookingRef)
	}
	return nil
}

func (r *mongoAbsenceRepository) FindApproved(ctx context.Context, barberID string, from, to calendar.Day) ([]*model.Absence, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Days are "YYYY-MM-DD" strings, so string comparison is calendar order.
	filter := bson.M{
		"status":     model.AbsenceApproved,
		"start_date": bson.M{"$lte": to},
		"end_date":   bson.M{"$gte": from},
	}
	if barberID != "" {
		filter["barber_id"] = barberID
	}

	opts := options.Find().SetSort(bson.D{{Key: "approved_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find approved absences: %w", err)
	}
	defer cursor.Close(ctx)

	var absences []*model.Absence
	if err := cursor.All(ctx, &absences); err != nil {
		return nil, fmt.Errorf("failed to decode absences: %w", err)
	}
	return absences, nil
}

func (r *mongoAbsenceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
