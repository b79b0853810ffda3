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

type MenuItems struct {
	c *mongo.Collection
}

func NewMenuItems(db *mongo.Database) *MenuItems {
	return &MenuItems{c: db.Collection("menu_items")}
}

func (s *MenuItems) Create(ctx context.Context, m models.MenuItem) (models.MenuItem, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.MenuItem{}, apperr.Internal(err)
	}
	return m, nil
}

func (s *MenuItems) GetByID(ctx context.Context, id primitive.ObjectID) (models.MenuItem, error) {
	var m models.MenuItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.MenuItem{}, notFoundOr(err, "menu item not found")
	}
	return m, nil
}

// Update sets the given fields and refreshes UpdatedAt, returning the
// updated document.
func (s *MenuItems) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.MenuItem, error) {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.MenuItem
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		return models.MenuItem{}, notFoundOr(err, "menu item not found")
	}
	return m, nil
}

// SetAvailability is the lifecycle's hook for availability transitions.
func (s *MenuItems) SetAvailability(ctx context.Context, id primitive.ObjectID, a models.Availability) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"availability": a,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Unlist soft-deletes the item, keeping it for donation history.
func (s *MenuItems) Unlist(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"unlisted":   true,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("menu item not found")
	}
	return nil
}

// Delete hard-deletes an item. Only used when no completed pickup
// references it.
func (s *MenuItems) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("menu item not found")
	}
	return nil
}

// ListAvailable is the public listing: available, listed, unexpired.
// Expiry is applied as a read-time filter, so stale items never surface
// even before their lazy transition runs.
func (s *MenuItems) ListAvailable(ctx context.Context, now time.Time, category models.Category) ([]models.MenuItem, error) {
	filter := bson.M{
		"availability": models.ItemAvailable,
		"unlisted":     false,
		"expiry_time":  bson.M{"$gt": now},
	}
	if category != "" {
		filter["category"] = category
	}
	return s.list(ctx, filter)
}

// ListByRestaurant returns every listed item a restaurant owns, newest
// first.
func (s *MenuItems) ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID) ([]models.MenuItem, error) {
	return s.list(ctx, bson.M{"restaurant_id": restaurantID, "unlisted": false})
}

func (s *MenuItems) list(ctx context.Context, filter bson.M) ([]models.MenuItem, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	items := []models.MenuItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}
