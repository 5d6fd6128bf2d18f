package api

import (
	"errors"
	"net/http"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrConfirmationRequired is returned by destructive endpoints called
// without confirm=true.
var ErrConfirmationRequired = errors.New("this action cannot be undone, repeat the request with confirm=true")

func requireConfirmation(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		abortWithError(c, http.StatusPreconditionFailed, ErrConfirmationRequired.Error())
		return false
	}
	return true
}

func authErrorStatus(reason domain.AuthReason) int {
	switch reason {
	case domain.ReasonInvalidEmail, domain.ReasonMissingPassword, domain.ReasonWeakPassword:
		return http.StatusBadRequest
	case domain.ReasonEmailAlreadyInUse:
		return http.StatusConflict
	case domain.ReasonUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// respondWithError maps service and domain errors onto HTTP responses.
func respondWithError(c *gin.Context, err error) {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		if authErr.Reason == domain.ReasonUnknown {
			log.Errorf("%s %s: %s", c.Request.Method, c.FullPath(), err)
		}
		c.AbortWithStatusJSON(authErrorStatus(authErr.Reason), gin.H{
			"error": authErr.Reason.Message(),
			"code":  authErr.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrIncompleteFields):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, domain.ErrSetNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrOpenSetExists),
		errors.Is(err, domain.ErrSetCompleted),
		errors.Is(err, service.ErrExerciseNotSelected):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrExportDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrPersistenceFailed):
		// already logged by the service
		abortWithError(c, http.StatusInternalServerError, service.ErrPersistenceFailed.Error())
	default:
		log.Errorf("%s %s: unexpected error: %s", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
