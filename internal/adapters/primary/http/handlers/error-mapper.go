package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinprj/predictml/internal/adapters/primary/http/dto"
	"github.com/vinprj/predictml/internal/core/domain"
)

func mapDomainError(c *gin.Context, err error) {
	var verr *domain.ValidationError

	switch {
	// Unprocessable input
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: verr.Error(), Field: verr.Field})

	// Not found errors
	case errors.Is(err, domain.ErrModelNotFound), errors.Is(err, domain.ErrNoImportance):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrModelMissing):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInference):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: domain.ErrInference.Error()})

	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
