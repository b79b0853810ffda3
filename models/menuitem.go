package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Availability represents the lifecycle state of a listed menu item.
type Availability string

const (
	ItemAvailable Availability = "available"
	ItemClaimed   Availability = "claimed"
	ItemPickedUp  Availability = "picked-up"
	ItemExpired   Availability = "expired"
)

// Category is the fixed set of food categories a menu item may carry.
type Category string

var Categories = []Category{
	"Main Course", "Rice", "Bread", "Dessert", "Snacks", "Beverages", "Side Dish",
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type MenuItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID primitive.ObjectID `bson:"restaurant_id" json:"restaurant_id"`
	Name         string             `bson:"name" json:"name"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Category     Category           `bson:"category" json:"category"`
	ExpiryTime   time.Time          `bson:"expiry_time" json:"expiry_time"`
	ImageRef     string             `bson:"image_ref,omitempty" json:"image,omitempty"`
	Availability Availability       `bson:"availability" json:"availability"`
	// Unlisted marks a soft-deleted item kept for donation history.
	Unlisted  bool      `bson:"unlisted" json:"unlisted,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the item's expiry time has passed as of now.
func (m MenuItem) Expired(now time.Time) bool {
	return !m.ExpiryTime.After(now)
}
