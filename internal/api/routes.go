package api

import (
	"net/http"

	"alcyxob/lift-log/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	catalogService service.CatalogService,
	workoutService service.WorkoutService,
	exportService service.ExportService,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(catalogService)
	setHandler := NewSetHandler(workoutService)
	exportHandler := NewExportHandler(exportService)

	authMiddleware := AuthMiddleware(authService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/categories", exerciseHandler.ListCategories)
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			// POST /api/v1/exercises/reset?confirm=true
			exerciseGroup.POST("/reset", exerciseHandler.ResetCatalog)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)

			// --- Set Ledger ---
			exerciseGroup.POST("/:id/select", setHandler.SelectExercise)
			exerciseGroup.GET("/:id/sets", setHandler.ListSets)
			exerciseGroup.POST("/:id/sets", setHandler.AppendSet)
			// DELETE /api/v1/exercises/{id}/sets?confirm=true
			exerciseGroup.DELETE("/:id/sets", setHandler.ClearSets)
			exerciseGroup.PATCH("/:id/sets/:ordinal", setHandler.EditSet)
			exerciseGroup.POST("/:id/sets/:ordinal/commit", setHandler.CommitSet)
		}

		protected.POST("/export", exportHandler.ExportHistory)
	}
}
