package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/authz"
	"mealconnect-api/middleware"
	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// expiry timestamps arrive either as RFC 3339 or as the datetime-local
// format browsers produce.
var expiryLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

func parseExpiry(s string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validationf("invalid expiry time %q", s)
}

// CreateMenuItem lists a surplus item for donation (multipart form:
// name, quantity, category, expiryTime, optional image). A pickup request
// opens automatically with the listing.
func (h *Handler) CreateMenuItem(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.Restaurants.GetByOwner(ctx, middleware.GetUserID(c))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			h.fail(c, apperr.NotFound("create a restaurant profile before listing items"))
			return
		}
		h.fail(c, err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		h.fail(c, apperr.Validationf("name is required"))
		return
	}
	quantity, err := strconv.Atoi(c.PostForm("quantity"))
	if err != nil || quantity <= 0 {
		h.fail(c, apperr.Validationf("quantity must be a positive integer"))
		return
	}
	category := models.Category(c.PostForm("category"))
	if !models.ValidCategory(category) {
		h.fail(c, apperr.Validationf("invalid category %q", category))
		return
	}
	expiry, err := parseExpiry(c.PostForm("expiryTime"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !expiry.After(time.Now()) {
		h.fail(c, apperr.Validationf("expiry time must be in the future"))
		return
	}

	imageRef := c.PostForm("image")
	if fh, ferr := c.FormFile("image"); ferr == nil {
		imageRef, err = h.Uploads.Save(fh)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	item, err := h.MenuItems.Create(ctx, models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         name,
		Quantity:     quantity,
		Category:     category,
		ExpiryTime:   expiry,
		ImageRef:     imageRef,
		Availability: models.ItemAvailable,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	pickup, err := h.Lifecycle.Open(ctx, item)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item, "pickup": pickup})
}

// UpdateMenuItem updates an item (owner or admin). Setting quantity to 0
// or the expiry into the past expires the listing and cancels its active
// pickup; restoring quantity and a future expiry on an expired item
// re-lists it and opens a fresh pickup request.
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid menu item id"))
		return
	}
	item, err := h.MenuItems.GetByID(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.principal(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := authz.CanAccess(p, authz.ActionUpdate, authz.ForMenuItem(item)); err != nil {
		h.fail(c, err)
		return
	}

	set := bson.M{}
	quantity := item.Quantity
	expiry := item.ExpiryTime

	if v := c.PostForm("name"); v != "" {
		set["name"] = v
	}
	if v := c.PostForm("quantity"); v != "" {
		quantity, err = strconv.Atoi(v)
		if err != nil || quantity < 0 {
			h.fail(c, apperr.Validationf("quantity must be a non-negative integer"))
			return
		}
		set["quantity"] = quantity
	}
	if v := c.PostForm("category"); v != "" {
		category := models.Category(v)
		if !models.ValidCategory(category) {
			h.fail(c, apperr.Validationf("invalid category %q", category))
			return
		}
		set["category"] = category
	}
	if v := c.PostForm("expiryTime"); v != "" {
		expiry, err = parseExpiry(v)
		if err != nil {
			h.fail(c, err)
			return
		}
		set["expiry_time"] = expiry
	}
	if fh, ferr := c.FormFile("image"); ferr == nil {
		ref, uerr := h.Uploads.Save(fh)
		if uerr != nil {
			h.fail(c, uerr)
			return
		}
		set["image_ref"] = ref
	} else if v := c.PostForm("image"); v != "" {
		set["image_ref"] = v
	}
	if len(set) == 0 {
		h.fail(c, apperr.Validationf("no updatable fields provided"))
		return
	}

	updated, err := h.MenuItems.Update(ctx, id, set)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	switch {
	case quantity == 0 || updated.Expired(now):
		// The listing is gone; close out any active pickup.
		if _, err := h.Lifecycle.CloseForItem(ctx, id, models.ItemExpired); err != nil {
			h.fail(c, err)
			return
		}
		updated.Availability = models.ItemExpired

	case updated.Availability == models.ItemExpired && quantity > 0 && expiry.After(now):
		// Explicit re-post of an expired item.
		if err := h.MenuItems.SetAvailability(ctx, id, models.ItemAvailable); err != nil {
			h.fail(c, err)
			return
		}
		updated.Availability = models.ItemAvailable
		if _, err := h.Lifecycle.Open(ctx, updated); err != nil && apperr.KindOf(err) != apperr.KindConflict {
			h.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "menu item updated", "item": updated})
}

// DeleteMenuItem soft-deletes a listing: its active pickup is cancelled
// and the item is unlisted. Items referenced by completed pickups are
// never hard-deleted, to preserve donation history.
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validationf("invalid menu item id"))
		return
	}
	item, err := h.MenuItems.GetByID(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.principal(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := authz.CanAccess(p, authz.ActionDelete, authz.ForMenuItem(item)); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.Lifecycle.CloseForItem(ctx, id, models.ItemExpired); err != nil {
		h.fail(c, err)
		return
	}

	hasHistory, err := h.Lifecycle.HasCompletedForItem(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if hasHistory {
		if err := h.MenuItems.Unlist(ctx, id); err != nil {
			h.fail(c, err)
			return
		}
	} else if err := h.MenuItems.Delete(ctx, id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "menu item deleted"})
}

// ListAvailableItems is the public donation listing.
func (h *Handler) ListAvailableItems(c *gin.Context) {
	items, err := h.MenuItems.ListAvailable(c.Request.Context(), time.Now(), models.Category(c.Query("category")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GetMyItems returns the caller's restaurant listings.
func (h *Handler) GetMyItems(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.Restaurants.GetByOwner(ctx, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.MenuItems.ListByRestaurant(ctx, restaurant.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}
