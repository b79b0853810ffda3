package routes

import (
	"mealconnect-api/handlers"
	"mealconnect-api/middleware"
	"mealconnect-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	auth := middleware.AuthRequired(h.JWTSecret)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Restaurants & donation listings (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/menu-items", h.ListAvailableItems)

		// Partnership applications are open to anyone
		public.POST("/partnerships", h.ApplyPartnership)

		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}

	// ── Authenticated routes ───────────────────────────────────────
	user := r.Group("/api")
	user.Use(auth)
	{
		user.GET("/user/profile", h.GetProfile)
		user.POST("/donations", h.CreateDonation)
		user.GET("/donations", h.GetMyDonations)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api")
	restaurant.Use(auth, middleware.RoleRequired(models.RoleRestaurant))
	{
		restaurant.POST("/restaurants", h.CreateRestaurant)
		restaurant.GET("/restaurants/my-restaurant", h.GetMyRestaurant)
		restaurant.PUT("/restaurants/my-restaurant", h.UpdateMyRestaurant)

		restaurant.POST("/menu-items", h.CreateMenuItem)
		restaurant.GET("/menu-items/my-items", h.GetMyItems)

		restaurant.GET("/pickups/my-restaurant", h.GetRestaurantPickups)
	}

	// Menu item mutation is owner-or-admin; the ownership guard decides.
	menuAdmin := r.Group("/api")
	menuAdmin.Use(auth, middleware.RoleRequired(models.RoleRestaurant, models.RoleAdmin))
	{
		menuAdmin.PUT("/menu-items/:id", h.UpdateMenuItem)
		menuAdmin.DELETE("/menu-items/:id", h.DeleteMenuItem)
	}

	// ── Volunteer routes ───────────────────────────────────────────
	volunteer := r.Group("/api")
	volunteer.Use(auth, middleware.RoleRequired(models.RoleVolunteer))
	{
		volunteer.GET("/pickups/available", h.ListAvailablePickups)
		volunteer.GET("/pickups/my-pickups", h.GetMyPickups)
		volunteer.GET("/volunteers/stats", h.GetVolunteerStats)
		volunteer.POST("/pickups/:id/claim", h.ClaimPickup)
	}

	// Complete allows admin override; cancel is restaurant, claiming
	// volunteer, or admin. Fine-grained rules live in the lifecycle.
	pickupActions := r.Group("/api")
	pickupActions.Use(auth, middleware.RoleRequired(models.RoleVolunteer, models.RoleAdmin))
	{
		pickupActions.POST("/pickups/:id/complete", h.CompletePickup)
	}
	cancelActions := r.Group("/api")
	cancelActions.Use(auth, middleware.RoleRequired(models.RoleRestaurant, models.RoleVolunteer, models.RoleAdmin))
	{
		cancelActions.POST("/pickups/:id/cancel", h.CancelPickup)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(auth, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.AdminGetAllUsers)
		admin.GET("/volunteers", h.AdminGetAllVolunteers)
		admin.GET("/restaurants", h.AdminGetAllRestaurants)
		admin.GET("/pickups", h.AdminGetAllPickups)
		admin.GET("/donations", h.AdminGetDonations)
		admin.PUT("/donations/:id/status", h.AdminSetDonationStatus)
		admin.GET("/partnerships", h.AdminGetPartnerships)
		admin.PUT("/partnerships/:id/status", h.AdminSetPartnershipStatus)
	}
}
