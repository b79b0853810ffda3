// Package authz is the single ownership/permission decision point.
// Handlers and the pickup lifecycle call CanAccess before any mutation so
// that role rules live in one place instead of drifting across routes.
package authz

import (
	"mealconnect-api/apperr"
	"mealconnect-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated actor performing a request. RestaurantID
// is resolved for restaurant-role users before ownership checks and is the
// zero ObjectID when the user has no restaurant profile yet.
type Principal struct {
	UserID       primitive.ObjectID
	Role         models.UserRole
	RestaurantID primitive.ObjectID
}

// Action is the operation being attempted on a resource.
type Action string

const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionClaim    Action = "claim"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// ResourceKind identifies the entity type a check targets.
type ResourceKind string

const (
	KindRestaurant ResourceKind = "restaurant"
	KindMenuItem   ResourceKind = "menu_item"
	KindPickup     ResourceKind = "pickup"
)

// Resource carries the fields the rules need; build one with ForRestaurant,
// ForMenuItem or ForPickup.
type Resource struct {
	Kind         ResourceKind
	RestaurantID primitive.ObjectID
	Public       bool

	// Pickup-only fields
	PickupStatus models.PickupStatus
	VolunteerID  *primitive.ObjectID
}

func ForRestaurant(r models.Restaurant) Resource {
	return Resource{Kind: KindRestaurant, RestaurantID: r.ID}
}

func ForMenuItem(m models.MenuItem) Resource {
	return Resource{Kind: KindMenuItem, RestaurantID: m.RestaurantID, Public: m.Availability == models.ItemAvailable && !m.Unlisted}
}

func ForPickup(p models.PickupRequest) Resource {
	return Resource{
		Kind:         KindPickup,
		RestaurantID: p.RestaurantID,
		PickupStatus: p.Status,
		VolunteerID:  p.VolunteerID,
	}
}

// CanAccess decides whether the principal may perform action on resource.
// Returns nil when allowed, a Forbidden error otherwise. Rules are
// evaluated in order; the first match wins.
func CanAccess(p Principal, action Action, res Resource) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil

	case models.RoleRestaurant:
		if !p.RestaurantID.IsZero() && res.RestaurantID == p.RestaurantID {
			return nil
		}

	case models.RoleVolunteer:
		if res.Kind == KindPickup {
			switch action {
			case ActionClaim:
				if res.PickupStatus == models.PickupOpen {
					return nil
				}
			case ActionComplete, ActionCancel:
				if res.VolunteerID != nil && *res.VolunteerID == p.UserID {
					return nil
				}
			case ActionRead:
				if res.VolunteerID != nil && *res.VolunteerID == p.UserID {
					return nil
				}
			}
		}
		if action == ActionRead && res.Public {
			return nil
		}

	case models.RoleDonor:
		if action == ActionRead && res.Public {
			return nil
		}
	}

	return apperr.Forbidden("you do not have permission to perform this action")
}
