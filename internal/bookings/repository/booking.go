package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "barbersched/internal/bookings/errors"
	"barbersched/pkg/config"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// Filter selects active (pending or confirmed) bookings starting in
// [From, To). An empty BarberID matches every barber. IncludeCompleted also
// counts completed bookings, for workload history.
type Filter struct {
	BarberID         string
	From             time.Time
	To               time.Time
	IncludeCompleted bool
}

func (f Filter) statuses() []model.BookingStatus {
	if f.IncludeCompleted {
		return append(append([]model.BookingStatus(nil), model.ActiveBookingStatuses...), model.BookingCompleted)
	}
	return model.ActiveBookingStatuses
}

// Reassignment moves an active booking from one barber to another and
// optionally to a new start time.
type Reassignment struct {
	FromBarberID string
	ToBarberID   string
	BookingDate  *time.Time
	By           string
	At           time.Time
}

// BookingRepository covers the booking fields the scheduling engine reads
// and writes. The booking service owns the rest of the document.
type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindActive(ctx context.Context, filter Filter) ([]*model.Booking, error)
	CountActive(ctx context.Context, filter Filter) (int64, error)
	Reassign(ctx context.Context, id string, change Reassignment) error
	Reject(ctx context.Context, id, reason string, at time.Time) error
	Complete(ctx context.Context, id string, at time.Time) error
	MarkAutoAssigned(ctx context.Context, id, barberID string) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func activeStatuses() bson.M {
	return bson.M{"$in": model.ActiveBookingStatuses}
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) buildFilter(filter Filter) bson.M {
	query := bson.M{"status": bson.M{"$in": filter.statuses()}}
	if filter.BarberID != "" {
		query["barber_id"] = filter.BarberID
	}
	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lt"] = filter.To
	}
	if len(dateRange) > 0 {
		query["booking_date"] = dateRange
	}
	return query
}

func (r *mongoBookingRepository) FindActive(ctx context.Context, filter Filter) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "booking_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) CountActive(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// updateActive applies update to the booking only while it is still active
// and, when barberID is set, still assigned to that barber.
func (r *mongoBookingRepository) updateActive(ctx context.Context, id, barberID string, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "status": activeStatuses()}
	if barberID != "" {
		filter["barber_id"] = barberID
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrStateChanged, id)
	}
	return nil
}

func (r *mongoBookingRepository) Reassign(ctx context.Context, id string, change Reassignment) error {
	set := bson.M{
		"barber_id":       change.ToBarberID,
		"reassigned_from": change.FromBarberID,
		"reassigned_at":   change.At,
		"reassigned_by":   change.By,
		"updated_at":      change.At,
	}
	if change.BookingDate != nil {
		set["booking_date"] = *change.BookingDate
	}
	return r.updateActive(ctx, id, change.FromBarberID, bson.M{"$set": set})
}

func (r *mongoBookingRepository) Reject(ctx context.Context, id, reason string, at time.Time) error {
	return r.updateActive(ctx, id, "", bson.M{"$set": bson.M{
		"status":           model.BookingRejected,
		"rejection_reason": reason,
		"updated_at":       at,
	}})
}

func (r *mongoBookingRepository) Complete(ctx context.Context, id string, at time.Time) error {
	return r.updateActive(ctx, id, "", bson.M{"$set": bson.M{
		"status":       model.BookingCompleted,
		"completed_at": at,
		"updated_at":   at,
	}})
}

func (r *mongoBookingRepository) MarkAutoAssigned(ctx context.Context, id, barberID string) error {
	return r.updateActive(ctx, id, "", bson.M{"$set": bson.M{
		"barber_id":     barberID,
		"auto_assigned": true,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	}})
}
