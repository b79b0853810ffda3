package statemachine

import (
	"testing"

	"mealconnect-api/apperr"
	"mealconnect-api/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.PickupStatus
		to    models.PickupStatus
		actor Actor
		ok    bool
	}{
		{"volunteer claims open", models.PickupOpen, models.PickupClaimed, ActorVolunteer, true},
		{"volunteer completes claimed", models.PickupClaimed, models.PickupCompleted, ActorVolunteer, true},
		{"admin completes claimed", models.PickupClaimed, models.PickupCompleted, ActorAdmin, true},
		{"restaurant cancels open", models.PickupOpen, models.PickupCancelled, ActorRestaurant, true},
		{"system expires claimed", models.PickupClaimed, models.PickupCancelled, ActorSystem, true},
		{"volunteer cancels claimed", models.PickupClaimed, models.PickupCancelled, ActorVolunteer, true},

		{"restaurant cannot claim", models.PickupOpen, models.PickupClaimed, ActorRestaurant, false},
		{"volunteer cannot cancel open", models.PickupOpen, models.PickupCancelled, ActorVolunteer, false},
		{"restaurant cannot complete", models.PickupClaimed, models.PickupCompleted, ActorRestaurant, false},
		{"no transitions out of completed", models.PickupCompleted, models.PickupCancelled, ActorAdmin, false},
		{"no transitions out of cancelled", models.PickupCancelled, models.PickupClaimed, ActorVolunteer, false},
		{"cannot skip claim", models.PickupOpen, models.PickupCompleted, ActorVolunteer, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
			}
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	assert.Empty(t, ValidTransitionsFrom(models.PickupCompleted))
	assert.Empty(t, ValidTransitionsFrom(models.PickupCancelled))
}

func TestValidTransitionsFromOpen(t *testing.T) {
	nexts := ValidTransitionsFrom(models.PickupOpen)
	assert.ElementsMatch(t, []models.PickupStatus{models.PickupClaimed, models.PickupCancelled}, nexts)
}

func TestActorFor(t *testing.T) {
	assert.Equal(t, ActorAdmin, ActorFor(models.RoleAdmin))
	assert.Equal(t, ActorRestaurant, ActorFor(models.RoleRestaurant))
	assert.Equal(t, ActorVolunteer, ActorFor(models.RoleVolunteer))
}
