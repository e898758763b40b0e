package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/adapters/primary/http/dto"
	"github.com/vinprj/predictml/internal/core/domain"
)

func (h *Handler) Predict(c *gin.Context) {
	modelName := c.Param("model_name")

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		mapDomainError(c, domain.NewValidationError("body", "invalid JSON object: %v", err))
		return
	}

	resp, err := h.predictionSvc.Predict(c.Request.Context(), modelName, fields)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			log.WithError(err).WithField("model", modelName).Error("predict failed")
		}
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictResponse(resp))
}
