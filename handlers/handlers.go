package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealconnect-api/apperr"
	"mealconnect-api/authz"
	"mealconnect-api/lifecycle"
	"mealconnect-api/middleware"
	"mealconnect-api/models"
	"mealconnect-api/store"
	"mealconnect-api/uploads"
)

// Handler carries every dependency the route handlers need. Routes are
// registered against its methods, so nothing handler-side is global.
type Handler struct {
	Log          *zap.Logger
	JWTSecret    []byte
	Users        *store.Users
	Restaurants  *store.Restaurants
	MenuItems    *store.MenuItems
	Pickups      *store.Pickups
	Donations    *store.Donations
	Partnerships *store.Partnerships
	Lifecycle    *lifecycle.Service
	Uploads      *uploads.Store
}

// fail writes the taxonomy response for err. Internal detail goes to the
// log, never to the client.
func (h *Handler) fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// principal builds the authz principal for the authenticated caller,
// resolving the owned restaurant for restaurant-role users. A restaurant
// user without a profile yet gets a zero RestaurantID, which fails every
// ownership check.
func (h *Handler) principal(c *gin.Context) (authz.Principal, error) {
	p := authz.Principal{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
	}
	if p.Role == models.RoleRestaurant {
		r, err := h.Restaurants.GetByOwner(c.Request.Context(), p.UserID)
		if err == nil {
			p.RestaurantID = r.ID
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return authz.Principal{}, err
		}
	}
	return p, nil
}
