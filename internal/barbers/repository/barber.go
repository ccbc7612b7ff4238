package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	barberserrors "barbersched/internal/barbers/errors"
	"barbersched/pkg/config"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BarbersCollection  = "Barbers"
	ServicesCollection = "Services"
)

// BarberRepository reads barber profiles. Profiles are owned elsewhere and
// never written here.
type BarberRepository interface {
	FindByID(ctx context.Context, id string) (*model.Barber, error)
	// FindEligible returns available barbers open to auto-assignment whose
	// expertise includes every tag, ignoring case.
	FindEligible(ctx context.Context, expertise []string) ([]*model.Barber, error)
	FindAvailable(ctx context.Context) ([]*model.Barber, error)
}

type ServiceRepository interface {
	FindByID(ctx context.Context, id string) (*model.Service, error)
}

type mongoBarberRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBarberRepository(cfg *config.Config) BarberRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBarberRepository{
		cfg:        cfg,
		collection: db.Collection(BarbersCollection),
	}
}

// idFilter matches ids stored either as ObjectIDs or as plain strings.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

func (r *mongoBarberRepository) FindByID(ctx context.Context, id string) (*model.Barber, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if id == "" {
		return nil, barberserrors.ErrInvalidID
	}

	var barber model.Barber
	if err := r.collection.FindOne(ctx, idFilter(id)).Decode(&barber); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", barberserrors.ErrBarberNotFound, id)
		}
		return nil, fmt.Errorf("failed to find barber: %w", err)
	}
	return &barber, nil
}

func (r *mongoBarberRepository) FindEligible(ctx context.Context, expertise []string) ([]*model.Barber, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"is_available":             true,
		"auto_assignment_eligible": true,
	}
	if len(expertise) > 0 {
		all := bson.A{}
		for _, tag := range expertise {
			all = append(all, primitive.Regex{Pattern: "^" + regexp.QuoteMeta(tag) + "$", Options: "i"})
		}
		filter["expertise"] = bson.M{"$all": all}
	}

	return r.find(ctx, filter)
}

func (r *mongoBarberRepository) FindAvailable(ctx context.Context) ([]*model.Barber, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"is_available": true})
}

func (r *mongoBarberRepository) find(ctx context.Context, filter bson.M) ([]*model.Barber, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find barbers: %w", err)
	}
	defer cursor.Close(ctx)

	var barbers []*model.Barber
	if err := cursor.All(ctx, &barbers); err != nil {
		return nil, fmt.Errorf("failed to decode barbers: %w", err)
	}
	return barbers, nil
}

type mongoServiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoServiceRepository(cfg *config.Config) ServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoServiceRepository{
		cfg:        cfg,
		collection: db.Collection(ServicesCollection),
	}
}

func (r *mongoServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if id == "" {
		return nil, barberserrors.ErrInvalidID
	}

	var service model.Service
	if err := r.collection.FindOne(ctx, idFilter(id)).Decode(&service); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", barberserrors.ErrServiceNotFound, id)
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return &service, nil
}
