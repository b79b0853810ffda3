package handlers

import (
	"net/http"
	"strings"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/middleware"
	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pickupView pairs a request with its menu item for list responses.
type pickupView struct {
	Pickup models.PickupRequest `json:"pickup"`
	Item   models.MenuItem      `json:"item"`
}

// ListAvailablePickups shows open requests volunteers can claim. Expired
// items are filtered out here; their lazy transition runs when someone
// interacts with the request.
func (h *Handler) ListAvailablePickups(c *gin.Context) {
	ctx := c.Request.Context()
	open, err := h.Pickups.ListOpen(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	views := []pickupView{}
	for _, p := range open {
		item, err := h.MenuItems.GetByID(ctx, p.MenuItemID)
		if err != nil || item.Unlisted || item.Expired(now) {
			continue
		}
		views = append(views, pickupView{Pickup: p, Item: item})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "pickups": views})
}

// GetMyPickups returns the volunteer's claim history with item detail.
func (h *Handler) GetMyPickups(c *gin.Context) {
	ctx := c.Request.Context()
	pickups, err := h.Pickups.ListByVolunteer(ctx, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	views := []pickupView{}
	for _, p := range pickups {
		item, err := h.MenuItems.GetByID(ctx, p.MenuItemID)
		if err != nil {
			continue
		}
		views = append(views, pickupView{Pickup: p, Item: item})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "pickups": views})
}

// GetVolunteerStats is the volunteer dashboard summary.
func (h *Handler) GetVolunteerStats(c *gin.Context) {
	pickups, err := h.Pickups.ListByVolunteer(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	summary := map[string]int{}
	for _, p := range pickups {
		summary[string(p.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{"total": len(pickups), "by_status": summary})
}

// GetRestaurantPickups returns every pickup request against the caller's
// restaurant, with a status summary for the dashboard.
func (h *Handler) GetRestaurantPickups(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.Restaurants.GetByOwner(ctx, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	pickups, err := h.Pickups.ListByRestaurant(ctx, restaurant.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	summary := map[string]int{}
	for _, p := range pickups {
		summary[string(p.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"summary":    summary,
		"count":      len(pickups),
		"pickups":    pickups,
	})
}

// ClaimPickup reserves an open request for the calling volunteer. Two
// racing volunteers resolve to exactly one winner; the loser gets a 409.
func (h *Handler) ClaimPickup(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid pickup id"))
		return
	}
	p, err := h.principal(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	claimed, err := h.Lifecycle.Claim(c.Request.Context(), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pickup claimed", "pickup": claimed})
}

// CompletePickup finishes a claimed request. Proof is mandatory: either an
// uploaded file (multipart field "proof") or a pre-uploaded reference
// ("proof_ref" form field or JSON body).
func (h *Handler) CompletePickup(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid pickup id"))
		return
	}
	p, err := h.principal(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var proofRef string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if fh, ferr := c.FormFile("proof"); ferr == nil {
			proofRef, err = h.Uploads.Save(fh)
			if err != nil {
				h.fail(c, err)
				return
			}
		} else {
			proofRef = c.PostForm("proof_ref")
		}
	} else {
		var body struct {
			ProofRef string `json:"proof_ref"`
		}
		// A missing body is fine here; the lifecycle rejects empty proof.
		_ = c.ShouldBindJSON(&body)
		proofRef = body.ProofRef
	}

	done, err := h.Lifecycle.Complete(c.Request.Context(), id, p, proofRef)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pickup completed", "pickup": done})
}

// CancelPickup cancels an open or claimed request. Allowed for the owning
// restaurant, the claiming volunteer, or an admin.
func (h *Handler) CancelPickup(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid pickup id"))
		return
	}
	p, err := h.principal(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	cancelled, err := h.Lifecycle.Cancel(c.Request.Context(), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pickup cancelled", "pickup": cancelled})
}
