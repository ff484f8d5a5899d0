package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the account API. adminGate runs before every
// administrator-only route; an empty gate leaves them open.
func RegisterRoutes(router gin.IRouter, h *AccountHandler, adminGate ...gin.HandlerFunc) {
	admin := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, adminGate...), handler)
	}

	users := router.Group("/api/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("/:id/profile", h.GetProfile)
		users.PUT("/:id/update", h.UpdateProfile)
		users.POST("/create-specialist", admin(h.CreateSpecialist)...)
		users.POST("/create-staff", admin(h.CreateStaff)...)
		users.DELETE("/:id/delete", admin(h.DeleteUser)...)
	}

	router.GET("/api/admin/roles/:role/users", admin(h.ListUsersByRole)...)
}
