package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/services"
)

// respondError maps service and fairness errors onto HTTP statuses.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fairness.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, fairness.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, services.ErrRoundNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, fairness.ErrInvariantViolation):
		log.Printf("Invariant violation: %v", err)
	default:
		log.Printf("%s: %v", message, err)
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
