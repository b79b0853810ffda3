package statemachine

import (
	"mealconnect-api/apperr"
	"mealconnect-api/models"
)

// Actor identifies who is driving a transition.
type Actor string

const (
	ActorRestaurant Actor = "restaurant"
	ActorVolunteer  Actor = "volunteer"
	ActorAdmin      Actor = "admin"
	ActorSystem     Actor = "system" // lazy expiry
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.PickupStatus
	To    models.PickupStatus
	Actor Actor
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Volunteer claims an open request
	{From: models.PickupOpen, To: models.PickupClaimed, Actor: ActorVolunteer},
	// Claiming volunteer (or admin override) completes the delivery
	{From: models.PickupClaimed, To: models.PickupCompleted, Actor: ActorVolunteer},
	{From: models.PickupClaimed, To: models.PickupCompleted, Actor: ActorAdmin},
	// Restaurant or admin can cancel an open request; expiry cancels it too
	{From: models.PickupOpen, To: models.PickupCancelled, Actor: ActorRestaurant},
	{From: models.PickupOpen, To: models.PickupCancelled, Actor: ActorAdmin},
	{From: models.PickupOpen, To: models.PickupCancelled, Actor: ActorSystem},
	// A claimed request can be cancelled by the restaurant, the claiming
	// volunteer, an admin, or expiry
	{From: models.PickupClaimed, To: models.PickupCancelled, Actor: ActorRestaurant},
	{From: models.PickupClaimed, To: models.PickupCancelled, Actor: ActorVolunteer},
	{From: models.PickupClaimed, To: models.PickupCancelled, Actor: ActorAdmin},
	{From: models.PickupClaimed, To: models.PickupCancelled, Actor: ActorSystem},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.PickupStatus
	To    models.PickupStatus
	Actor Actor
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ActorFor maps a user role onto its state machine actor.
func ActorFor(role models.UserRole) Actor {
	switch role {
	case models.RoleAdmin:
		return ActorAdmin
	case models.RoleRestaurant:
		return ActorRestaurant
	case models.RoleVolunteer:
		return ActorVolunteer
	}
	return Actor(role)
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.PickupStatus) []models.PickupStatus {
	var nexts []models.PickupStatus
	seen := map[models.PickupStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.PickupStatus, actor Actor) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return apperr.InvalidTransitionf(
		"invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from),
	)
}

func describeValidFrom(status models.PickupStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
