package store

import (
	"context"
	"errors"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/lifecycle"
	"mealconnect-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pickups persists pickup requests. The conditional updates here are the
// only concurrency-sensitive writes in the system: each one is a single
// FindOneAndUpdate whose filter pins the expected status, so racing
// callers cannot both succeed.
type Pickups struct {
	c *mongo.Collection
}

func NewPickups(db *mongo.Database) *Pickups {
	return &Pickups{c: db.Collection("pickup_requests")}
}

// Create inserts an open request. The partial unique index on
// menu_item_id (status ∈ {open, claimed}) rejects a second active request
// for the same item with a duplicate-key error.
func (s *Pickups) Create(ctx context.Context, p models.PickupRequest) (models.PickupRequest, error) {
	p.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if IsDup(err) {
			return models.PickupRequest{}, apperr.Conflict("an active pickup request already exists for this item")
		}
		return models.PickupRequest{}, apperr.Internal(err)
	}
	return p, nil
}

func (s *Pickups) GetByID(ctx context.Context, id primitive.ObjectID) (models.PickupRequest, error) {
	var p models.PickupRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.PickupRequest{}, notFoundOr(err, "pickup request not found")
	}
	return p, nil
}

// ClaimOpen atomically moves an open request to claimed for the given
// volunteer. Returns lifecycle.ErrNotMatched when the request is not open
// anymore (or does not exist); the caller classifies the failure.
func (s *Pickups) ClaimOpen(ctx context.Context, id, volunteerID primitive.ObjectID, at time.Time) (models.PickupRequest, error) {
	return s.compareAndSet(ctx,
		bson.M{"_id": id, "status": models.PickupOpen},
		bson.M{"$set": bson.M{
			"status":       models.PickupClaimed,
			"volunteer_id": volunteerID,
			"claimed_at":   at,
			"updated_at":   at,
		}})
}

// CompleteClaimed atomically moves a claimed request to completed.
func (s *Pickups) CompleteClaimed(ctx context.Context, id primitive.ObjectID, proofRef string, at time.Time) (models.PickupRequest, error) {
	return s.compareAndSet(ctx,
		bson.M{"_id": id, "status": models.PickupClaimed},
		bson.M{"$set": bson.M{
			"status":       models.PickupCompleted,
			"proof_ref":    proofRef,
			"completed_at": at,
			"updated_at":   at,
		}})
}

// CancelActive atomically cancels an open or claimed request. The
// volunteer_id is deliberately left in place for audit.
func (s *Pickups) CancelActive(ctx context.Context, id primitive.ObjectID, at time.Time) (models.PickupRequest, error) {
	return s.compareAndSet(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []models.PickupStatus{models.PickupOpen, models.PickupClaimed}}},
		bson.M{"$set": bson.M{
			"status":       models.PickupCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		}})
}

func (s *Pickups) compareAndSet(ctx context.Context, filter, update bson.M) (models.PickupRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.PickupRequest
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PickupRequest{}, lifecycle.ErrNotMatched
	}
	if err != nil {
		return models.PickupRequest{}, apperr.Internal(err)
	}
	return p, nil
}

// ActiveByItem returns the single non-terminal request for an item.
func (s *Pickups) ActiveByItem(ctx context.Context, itemID primitive.ObjectID) (models.PickupRequest, error) {
	var p models.PickupRequest
	err := s.c.FindOne(ctx, bson.M{
		"menu_item_id": itemID,
		"status":       bson.M{"$in": []models.PickupStatus{models.PickupOpen, models.PickupClaimed}},
	}).Decode(&p)
	if err != nil {
		return models.PickupRequest{}, notFoundOr(err, "no active pickup request for this item")
	}
	return p, nil
}

// HasCompletedForItem reports whether donation history references the item.
func (s *Pickups) HasCompletedForItem(ctx context.Context, itemID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"menu_item_id": itemID,
		"status":       models.PickupCompleted,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n > 0, nil
}

// ListOpen returns claimable requests, oldest first so long-waiting
// donations surface first.
func (s *Pickups) ListOpen(ctx context.Context) ([]models.PickupRequest, error) {
	return s.list(ctx, bson.M{"status": models.PickupOpen}, bson.D{{Key: "created_at", Value: 1}})
}

func (s *Pickups) ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID) ([]models.PickupRequest, error) {
	return s.list(ctx, bson.M{"restaurant_id": restaurantID}, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Pickups) ListByVolunteer(ctx context.Context, volunteerID primitive.ObjectID) ([]models.PickupRequest, error) {
	return s.list(ctx, bson.M{"volunteer_id": volunteerID}, bson.D{{Key: "created_at", Value: -1}})
}

// ListAll is the admin view across all restaurants, optionally filtered
// by status.
func (s *Pickups) ListAll(ctx context.Context, status models.PickupStatus) ([]models.PickupRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Pickups) list(ctx context.Context, filter bson.M, sort bson.D) ([]models.PickupRequest, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	out := []models.PickupRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
