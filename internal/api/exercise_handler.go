package api

import (
	"fmt"
	"net/http"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler serves the exercise catalog.
type ExerciseHandler struct {
	catalogService service.CatalogService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// CreateExerciseRequest defines the expected JSON for creating an exercise.
// Blank values are rejected by the catalog.
type CreateExerciseRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ListExercises godoc
// @Summary Search the user's exercises
// @Tags Exercises
// @Produce json
// @Param term query string false "Case-insensitive name filter"
// @Param category query string false "Exact category, All matches any"
// @Success 200 {array} domain.ExerciseDefinition
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	matches, err := h.catalogService.Search(c.Request.Context(), userID, c.Query("term"), c.Query("category"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	exercises := []domain.ExerciseDefinition{}
	for ex := range matches {
		exercises = append(exercises, ex)
	}
	c.JSON(http.StatusOK, exercises)
}

// ListCategories returns the category filter options, All first.
func (h *ExerciseHandler) ListCategories(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	exercises, err := h.catalogService.Load(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Categories(exercises))
}

// CreateExercise godoc
// @Summary Add an exercise to the catalog
// @Tags Exercises
// @Accept json
// @Produce json
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} domain.ExerciseDefinition
// @Failure 400 {object} gin.H "Blank name or category"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	def, err := h.catalogService.Add(c.Request.Context(), userID, req.Name, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, def)
}

// DeleteExercise removes an exercise together with its set history.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	identity := c.Param("id")
	if err := h.catalogService.Remove(c.Request.Context(), userID, identity); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetCatalog godoc
// @Summary Replace the catalog with the default exercises
// @Tags Exercises
// @Produce json
// @Param confirm query bool true "Must be true"
// @Success 200 {array} domain.ExerciseDefinition
// @Failure 412 {object} gin.H "Confirmation missing"
// @Router /exercises/reset [post]
func (h *ExerciseHandler) ResetCatalog(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if !requireConfirmation(c) {
		return
	}

	exercises, err := h.catalogService.Reset(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}
