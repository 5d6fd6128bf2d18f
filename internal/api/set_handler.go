package api

import (
	"fmt"
	"net/http"
	"strconv"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/service"

	"github.com/gin-gonic/gin"
)

// SetHandler serves the set ledger of the selected exercise.
type SetHandler struct {
	workoutService service.WorkoutService
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(workoutService service.WorkoutService) *SetHandler {
	return &SetHandler{workoutService: workoutService}
}

// EditSetRequest changes one value of an open set.
type EditSetRequest struct {
	Field string `json:"field" binding:"required"` // weight or reps
	Value string `json:"value"`
}

// SetRecordResponse is a set record plus the summary of its previous value.
type SetRecordResponse struct {
	domain.SetRecord
	Previous string `json:"previous"`
}

type LedgerResponse struct {
	Exercise string              `json:"exercise"`
	Sets     []SetRecordResponse `json:"sets"`
}

func MapSetRecordToResponse(rec domain.SetRecord) SetRecordResponse {
	return SetRecordResponse{SetRecord: rec, Previous: rec.Past.Summary()}
}

func mapLedgerToResponse(identity string, records []domain.SetRecord) LedgerResponse {
	sets := make([]SetRecordResponse, len(records))
	for i, rec := range records {
		sets[i] = MapSetRecordToResponse(rec)
	}
	return LedgerResponse{Exercise: identity, Sets: sets}
}

func ordinalParam(c *gin.Context) (int, bool) {
	ordinal, err := strconv.Atoi(c.Param("ordinal"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid set ordinal %q", c.Param("ordinal")))
		return 0, false
	}
	return ordinal, true
}

// SelectExercise godoc
// @Summary Select an exercise and load its set history
// @Tags Sets
// @Produce json
// @Param id path string true "Exercise identity"
// @Success 200 {object} LedgerResponse
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /exercises/{id}/select [post]
func (h *SetHandler) SelectExercise(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	identity := c.Param("id")
	records, err := h.workoutService.Select(c.Request.Context(), userID, identity)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapLedgerToResponse(identity, records))
}

func (h *SetHandler) ListSets(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	identity := c.Param("id")
	records, err := h.workoutService.Sets(c.Request.Context(), userID, identity)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapLedgerToResponse(identity, records))
}

// AppendSet adds an empty set after the last completed one.
func (h *SetHandler) AppendSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	rec, err := h.workoutService.Append(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSetRecordToResponse(rec))
}

// EditSet godoc
// @Summary Change the weight or reps of an open set
// @Tags Sets
// @Accept json
// @Produce json
// @Param id path string true "Exercise identity"
// @Param ordinal path int true "Set ordinal"
// @Param edit body EditSetRequest true "Field and value"
// @Success 200 {object} SetRecordResponse "Completed sets are returned unchanged"
// @Router /exercises/{id}/sets/{ordinal} [patch]
func (h *SetHandler) EditSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	ordinal, ok := ordinalParam(c)
	if !ok {
		return
	}

	var req EditSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	field, err := domain.ParseSetField(req.Field)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.workoutService.Edit(c.Request.Context(), userID, c.Param("id"), ordinal, field, req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSetRecordToResponse(rec))
}

// CommitSet completes a set and saves it.
func (h *SetHandler) CommitSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	ordinal, ok := ordinalParam(c)
	if !ok {
		return
	}

	rec, err := h.workoutService.Commit(c.Request.Context(), userID, c.Param("id"), ordinal)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSetRecordToResponse(rec))
}

// ClearSets deletes the whole set history of the exercise.
func (h *SetHandler) ClearSets(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if !requireConfirmation(c) {
		return
	}

	if err := h.workoutService.Clear(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
