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

type Partnerships struct {
	c *mongo.Collection
}

func NewPartnerships(db *mongo.Database) *Partnerships {
	return &Partnerships{c: db.Collection("partnerships")}
}

func (s *Partnerships) Create(ctx context.Context, p models.Partnership) (models.Partnership, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Status = models.ApprovalPending
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Partnership{}, apperr.Internal(err)
	}
	return p, nil
}

func (s *Partnerships) ListAll(ctx context.Context, status models.ApprovalStatus) ([]models.Partnership, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	out := []models.Partnership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Partnerships) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (models.Partnership, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Partnership
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}, opts).Decode(&p)
	if err != nil {
		return models.Partnership{}, notFoundOr(err, "partnership not found")
	}
	return p, nil
}
