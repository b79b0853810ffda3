package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickupStatus represents the state of a pickup request.
type PickupStatus string

const (
	PickupOpen      PickupStatus = "open"
	PickupClaimed   PickupStatus = "claimed"
	PickupCompleted PickupStatus = "completed"
	PickupCancelled PickupStatus = "cancelled"
)

// Terminal reports whether no further transitions may leave s.
func (s PickupStatus) Terminal() bool {
	return s == PickupCompleted || s == PickupCancelled
}

type PickupRequest struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MenuItemID   primitive.ObjectID  `bson:"menu_item_id" json:"menu_item_id"`
	RestaurantID primitive.ObjectID  `bson:"restaurant_id" json:"restaurant_id"`
	VolunteerID  *primitive.ObjectID `bson:"volunteer_id,omitempty" json:"volunteer_id,omitempty"`
	Status       PickupStatus        `bson:"status" json:"status"`
	ClaimedAt    *time.Time          `bson:"claimed_at,omitempty" json:"claimed_at,omitempty"`
	CompletedAt  *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CancelledAt  *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	ProofRef     string              `bson:"proof_ref,omitempty" json:"proof,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// ClaimedBy reports whether the request is claimed by the given volunteer.
func (p PickupRequest) ClaimedBy(userID primitive.ObjectID) bool {
	return p.VolunteerID != nil && *p.VolunteerID == userID
}
