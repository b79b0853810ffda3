package handlers

import (
	"net/http"

	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
)

type PartnershipRequest struct {
	OrgName      string `json:"org_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Details      string `json:"details"`
}

// ApplyPartnership records a partnership application (public endpoint).
func (h *Handler) ApplyPartnership(c *gin.Context) {
	var req PartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partnership, err := h.Partnerships.Create(c.Request.Context(), models.Partnership{
		OrgName:      req.OrgName,
		ContactEmail: req.ContactEmail,
		Details:      req.Details,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "partnership application received", "partnership": partnership})
}
