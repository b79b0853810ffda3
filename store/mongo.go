// Package store contains the MongoDB persistence layer. Each entity gets
// a small store struct over its collection; handlers and the lifecycle
// service never touch collections directly.
package store

import (
	"context"
	"errors"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IsDup reports whether err is a mongo duplicate-key error.
func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == 11000
}

// notFoundOr maps ErrNoDocuments to the taxonomy and wraps the rest.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}

// EnsureIndexes creates the indexes the invariants rely on:
//   - unique user email
//   - one restaurant per owner
//   - at most one non-terminal pickup request per menu item (partial
//     unique index, so concurrent creates resolve to exactly one winner)
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("restaurants").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("pickup_requests").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "menu_item_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"status": bson.M{"$in": []string{string(models.PickupOpen), string(models.PickupClaimed)}},
		}),
	})
	return err
}
