package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	scheduleserrors "barbersched/internal/schedules/errors"
	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Schedules"
)

// Filter selects schedules. Zero fields are ignored; From and To are
// inclusive.
type Filter struct {
	BarberID   string
	From       calendar.Day
	To         calendar.Day
	AbsenceRef string
	BookingRef string
	OffOnly    bool
}

// Release identifies the slots to free. A zero Day releases the booking on
// every day. From and Times narrow the release to later slots or to the
// listed ones.
type Release struct {
	BarberID   string
	Day        calendar.Day
	BookingRef string
	From       *calendar.TimeOfDay
	Times      []calendar.TimeOfDay
}

type ScheduleRepository interface {
	// Insert stores seed unless a schedule for its (barber, date) exists and
	// returns whichever document is stored.
	Insert(ctx context.Context, seed *model.Schedule) (*model.Schedule, error)
	FindByBarberAndDate(ctx context.Context, barberID string, day calendar.Day) (*model.Schedule, error)
	Find(ctx context.Context, filter Filter) ([]*model.Schedule, error)
	// BookSlots marks the slots at idx booked in one conditional write. It
	// fails with ErrSlotUnavailable unless every slot still has the expected
	// time, is free and the day is not off.
	BookSlots(ctx context.Context, barberID string, day calendar.Day, idx []int, times []calendar.TimeOfDay, bookingRef string) error
	ReleaseSlots(ctx context.Context, release Release) (int64, error)
	SetSlotBlocked(ctx context.Context, barberID string, day calendar.Day, idx int, t calendar.TimeOfDay, blocked bool, reason string) error
	// MarkOffDay turns the day off for absenceRef, creating it from seed if
	// needed. It fails with ErrOffDayClaimed when the day is already off under
	// a different owner.
	MarkOffDay(ctx context.Context, seed *model.Schedule, absenceRef, reason string) error
	ClearOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error)
	TransferOffDay(ctx context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error)
	DeleteBefore(ctx context.Context, day calendar.Day) (int64, error)
}

type mongoScheduleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func dayFilter(barberID string, day calendar.Day) bson.M {
	return bson.M{"barber_id": barberID, "date": day}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoScheduleRepository) Insert(ctx context.Context, seed *model.Schedule) (*model.Schedule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"working_hours":     seed.WorkingHours,
			"slot_duration_min": seed.SlotDurationMin,
			"break_times":       seed.BreakTimes,
			"available_slots":   seed.AvailableSlots,
			"is_off_day":        seed.IsOffDay,
			"off_reason":        seed.OffReason,
			"version":           int64(1),
			"created_at":        ts,
			"updated_at":        ts,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var sc model.Schedule
	err := r.collection.FindOneAndUpdate(ctx, dayFilter(seed.BarberID, seed.Date), update, opts).Decode(&sc)
	if err != nil {
		// Two concurrent upserts can both miss and race to insert; the loser
		// hits the unique index and reads the winner's document.
		if mongo.IsDuplicateKeyError(err) {
			return r.FindByBarberAndDate(ctx, seed.BarberID, seed.Date)
		}
		return nil, fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return &sc, nil
}

func (r *mongoScheduleRepository) FindByBarberAndDate(ctx context.Context, barberID string, day calendar.Day) (*model.Schedule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var sc model.Schedule
	err := r.collection.FindOne(ctx, dayFilter(barberID, day)).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s/%s", scheduleserrors.ErrNotFound, barberID, day)
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}
	return &sc, nil
}

func (r *mongoScheduleRepository) Find(ctx context.Context, filter Filter) ([]*model.Schedule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{}
	if filter.BarberID != "" {
		query["barber_id"] = filter.BarberID
	}
	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	if filter.AbsenceRef != "" {
		query["absence_ref"] = filter.AbsenceRef
	}
	if filter.BookingRef != "" {
		query["available_slots.booking_ref"] = filter.BookingRef
	}
	if filter.OffOnly {
		query["is_off_day"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "barber_id", Value: 1}, {Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*model.Schedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}
	return schedules, nil
}

func slotPath(i int, field string) string {
	return "available_slots." + strconv.Itoa(i) + "." + field
}

func (r *mongoScheduleRepository) BookSlots(ctx context.Context, barberID string, day calendar.Day, idx []int, times []calendar.TimeOfDay, bookingRef string) error {
	if len(idx) == 0 || len(idx) != len(times) {
		return fmt.Errorf("%w: no slots requested", scheduleserrors.ErrSlotUnavailable)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := dayFilter(barberID, day)
	filter["is_off_day"] = false
	set := bson.M{"updated_at": now()}
	for n, i := range idx {
		filter[slotPath(i, "time")] = times[n]
		filter[slotPath(i, "is_booked")] = false
		filter[slotPath(i, "is_blocked")] = false
		set[slotPath(i, "is_booked")] = true
		set[slotPath(i, "booking_ref")] = bookingRef
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to book slots: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrSlotUnavailable, barberID, day)
	}
	return nil
}

func (r *mongoScheduleRepository) ReleaseSlots(ctx context.Context, release Release) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"available_slots.booking_ref": release.BookingRef}
	if release.BarberID != "" {
		filter["barber_id"] = release.BarberID
	}
	if !release.Day.IsZero() {
		filter["date"] = release.Day
	}

	slotMatch := bson.M{"s.booking_ref": release.BookingRef}
	if release.From != nil {
		// Times are zero padded "HH:MM" strings, so string order is time order.
		slotMatch["s.time"] = bson.M{"$gte": *release.From}
	}
	if len(release.Times) > 0 {
		slotMatch["s.time"] = bson.M{"$in": release.Times}
	}

	update := bson.M{
		"$set":   bson.M{"available_slots.$[s].is_booked": false, "updated_at": now()},
		"$unset": bson.M{"available_slots.$[s].booking_ref": ""},
		"$inc":   bson.M{"version": 1},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []any{slotMatch}})

	result, err := r.collection.UpdateMany(ctx, filter, update, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to release slots: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoScheduleRepository) SetSlotBlocked(ctx context.Context, barberID string, day calendar.Day, idx int, t calendar.TimeOfDay, blocked bool, reason string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := dayFilter(barberID, day)
	filter[slotPath(idx, "time")] = t
	update := bson.M{"$inc": bson.M{"version": 1}}
	if blocked {
		filter[slotPath(idx, "is_booked")] = false
		update["$set"] = bson.M{slotPath(idx, "is_blocked"): true, slotPath(idx, "block_reason"): reason, "updated_at": now()}
	} else {
		update["$set"] = bson.M{slotPath(idx, "is_blocked"): false, "updated_at": now()}
		update["$unset"] = bson.M{slotPath(idx, "block_reason"): ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update slot block: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s %s", scheduleserrors.ErrSlotUnavailable, barberID, day, t)
	}
	return nil
}

func (r *mongoScheduleRepository) MarkOffDay(ctx context.Context, seed *model.Schedule, absenceRef, reason string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := dayFilter(seed.BarberID, seed.Date)
	filter["$or"] = bson.A{
		bson.M{"is_off_day": false},
		bson.M{"absence_ref": absenceRef},
	}
	ts := now()
	update := bson.M{
		"$set": bson.M{
			"is_off_day":  true,
			"off_reason":  reason,
			"absence_ref": absenceRef,
			"updated_at":  ts,
		},
		"$setOnInsert": bson.M{
			"working_hours":     seed.WorkingHours,
			"slot_duration_min": seed.SlotDurationMin,
			"break_times":       seed.BreakTimes,
			"available_slots":   seed.AvailableSlots,
			"created_at":        ts,
		},
		"$inc": bson.M{"version": 1},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The day exists but the $or did not match, so the upsert collided
		// with the unique (barber_id, date) index.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s/%s", scheduleserrors.ErrOffDayClaimed, seed.BarberID, seed.Date)
		}
		return fmt.Errorf("failed to mark off day: %w", err)
	}
	return nil
}

func (r *mongoScheduleRepository) ClearOffDay(ctx context.Context, barberID string, day calendar.Day, absenceRef string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := dayFilter(barberID, day)
	filter["absence_ref"] = absenceRef
	update := bson.M{
		"$set":   bson.M{"is_off_day": false, "updated_at": now()},
		"$unset": bson.M{"off_reason": "", "absence_ref": ""},
		"$inc":   bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to clear off day: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *mongoScheduleRepository) TransferOffDay(ctx context.Context, barberID string, day calendar.Day, fromRef, toRef, reason string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := dayFilter(barberID, day)
	filter["absence_ref"] = fromRef
	update := bson.M{
		"$set": bson.M{"absence_ref": toRef, "off_reason": reason, "is_off_day": true, "updated_at": now()},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to transfer off day: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *mongoScheduleRepository) DeleteBefore(ctx context.Context, day calendar.Day) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"date": bson.M{"$lt": day}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old schedules: %w", err)
	}
	return result.DeletedCount, nil
}
