package handlers

import (
	"net/http"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminGetAllUsers returns all users, optionally filtered by role.
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetAllVolunteers returns every volunteer account.
func (h *Handler) AdminGetAllVolunteers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), models.RoleVolunteer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "volunteers": users})
}

// AdminGetAllRestaurants returns all restaurants.
func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// AdminGetAllPickups is the cross-restaurant pickup view with a status
// summary, optionally filtered by status.
func (h *Handler) AdminGetAllPickups(c *gin.Context) {
	pickups, err := h.Pickups.ListAll(c.Request.Context(), models.PickupStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}

	summary := map[string]int{}
	for _, p := range pickups {
		summary[string(p.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "count": len(pickups), "pickups": pickups})
}

// AdminGetDonations lists donations and, when from/to are given, sums
// approved amounts in the range. An empty range is an empty result, not
// an error.
func (h *Handler) AdminGetDonations(c *gin.Context) {
	ctx := c.Request.Context()
	donations, err := h.Donations.ListAll(ctx, models.ApprovalStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"count": len(donations), "donations": donations}
	if fromStr, toStr := c.Query("from"), c.Query("to"); fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.fail(c, apperr.Validationf("invalid 'from' timestamp"))
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.fail(c, apperr.Validationf("invalid 'to' timestamp"))
			return
		}
		totals, err := h.Donations.TotalInRange(ctx, from, to)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["totals"] = totals
	}
	c.JSON(http.StatusOK, resp)
}

type setStatusRequest struct {
	Status models.ApprovalStatus `json:"status" binding:"required"`
}

func (r setStatusRequest) validate() error {
	if r.Status != models.ApprovalApproved && r.Status != models.ApprovalRejected {
		return apperr.Validationf("status must be approved or rejected")
	}
	return nil
}

// AdminSetDonationStatus approves or rejects a donation.
func (h *Handler) AdminSetDonationStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid donation id"))
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		h.fail(c, err)
		return
	}

	donation, err := h.Donations.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "donation " + string(req.Status), "donation": donation})
}

// AdminGetPartnerships lists partnership applications.
func (h *Handler) AdminGetPartnerships(c *gin.Context) {
	partnerships, err := h.Partnerships.ListAll(c.Request.Context(), models.ApprovalStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(partnerships), "partnerships": partnerships})
}

// AdminSetPartnershipStatus approves or rejects a partnership application.
func (h *Handler) AdminSetPartnershipStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid partnership id"))
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		h.fail(c, err)
		return
	}

	partnership, err := h.Partnerships.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "partnership " + string(req.Status), "partnership": partnership})
}
