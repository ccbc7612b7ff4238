package model

import "time"

// Lock is an advisory lock document. The unique _id makes a second insert
// fail with a duplicate key error while the first holder is active.
type Lock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
