package repository

import (
	"context"
	"fmt"
	"time"

	maintenanceerrors "barbersched/internal/maintenance/errors"
	"barbersched/pkg/config"
	mongotx "barbersched/pkg/db/mongo"
	"barbersched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Locks"
)

// LockRepository stores advisory locks. The unique _id admits one holder
// per lock; an expired lock may be taken over.
type LockRepository interface {
	Acquire(ctx context.Context, lock *model.Lock) error
	Release(ctx context.Context, id, owner string) error
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Acquire inserts lock. A duplicate key means the lock is held and maps to
// ErrLockHeld.
func (r *mongoLockRepository) Acquire(ctx context.Context, lock *model.Lock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": lock.CreatedAt},
	}); err != nil {
		return fmt.Errorf("failed to clear expired lock: %w", err)
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", maintenanceerrors.ErrLockHeld, lock.ID)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

// Release removes the lock if owner still holds it.
func (r *mongoLockRepository) Release(ctx context.Context, id, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
