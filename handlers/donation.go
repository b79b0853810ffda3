package handlers

import (
	"net/http"

	"mealconnect-api/middleware"
	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
)

type DonationRequest struct {
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Details string  `json:"details"`
}

// CreateDonation records a monetary contribution from any authenticated
// user. It starts pending until an admin approves it.
func (h *Handler) CreateDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	donation, err := h.Donations.Create(c.Request.Context(), models.Donation{
		DonorID: middleware.GetUserID(c),
		Amount:  req.Amount,
		Details: req.Details,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "donation recorded", "donation": donation})
}

// GetMyDonations lists the caller's own donations.
func (h *Handler) GetMyDonations(c *gin.Context) {
	donations, err := h.Donations.ListByDonor(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(donations), "donations": donations})
}
