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

type Donations struct {
	c *mongo.Collection
}

func NewDonations(db *mongo.Database) *Donations {
	return &Donations{c: db.Collection("donations")}
}

func (s *Donations) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Status = models.ApprovalPending
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, apperr.Internal(err)
	}
	return d, nil
}

func (s *Donations) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error) {
	return s.list(ctx, bson.M{"donor_id": donorID})
}

func (s *Donations) ListAll(ctx context.Context, status models.ApprovalStatus) ([]models.Donation, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

// SetStatus moves a donation to approved/rejected.
func (s *Donations) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (models.Donation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d models.Donation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}, opts).Decode(&d)
	if err != nil {
		return models.Donation{}, notFoundOr(err, "donation not found")
	}
	return d, nil
}

// TotalsSummary is the admin date-range report.
type TotalsSummary struct {
	Total float64 `bson:"total" json:"total"`
	Count int     `bson:"count" json:"count"`
}

// TotalInRange sums approved donation amounts created within [from, to].
// An empty range yields a zero summary, not an error.
func (s *Donations) TotalInRange(ctx context.Context, from, to time.Time) (TotalsSummary, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"status":     models.ApprovalApproved,
			"created_at": bson.M{"$gte": from, "$lte": to},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return TotalsSummary{}, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return TotalsSummary{}, nil
	}
	var out TotalsSummary
	if err := cur.Decode(&out); err != nil {
		return TotalsSummary{}, apperr.Internal(err)
	}
	return out, nil
}

func (s *Donations) list(ctx context.Context, filter bson.M) ([]models.Donation, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	out := []models.Donation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
