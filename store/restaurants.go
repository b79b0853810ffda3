package store

import (
	"context"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Restaurants struct {
	c *mongo.Collection
}

func NewRestaurants(db *mongo.Database) *Restaurants {
	return &Restaurants{c: db.Collection("restaurants")}
}

// Create inserts the restaurant profile for its owner. The unique owner
// index makes a second profile a Conflict.
func (s *Restaurants) Create(ctx context.Context, r models.Restaurant) (models.Restaurant, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if IsDup(err) {
			return models.Restaurant{}, apperr.Conflict("a restaurant profile already exists for this account")
		}
		return models.Restaurant{}, apperr.Internal(err)
	}
	return r, nil
}

func (s *Restaurants) GetByID(ctx context.Context, id primitive.ObjectID) (models.Restaurant, error) {
	var r models.Restaurant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Restaurant{}, notFoundOr(err, "restaurant not found")
	}
	return r, nil
}

func (s *Restaurants) GetByOwner(ctx context.Context, ownerID primitive.ObjectID) (models.Restaurant, error) {
	var r models.Restaurant
	if err := s.c.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&r); err != nil {
		return models.Restaurant{}, notFoundOr(err, "no restaurant found for your account")
	}
	return r, nil
}

// Update sets the mutable profile fields and refreshes UpdatedAt.
func (s *Restaurants) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Restaurant, error) {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Restaurant
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r)
	if err != nil {
		return models.Restaurant{}, notFoundOr(err, "restaurant not found")
	}
	return r, nil
}

func (s *Restaurants) List(ctx context.Context) ([]models.Restaurant, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	out := []models.Restaurant{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
