package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/adapters/primary/http/dto"
	"github.com/vinprj/predictml/internal/core/domain"
)

func (h *Handler) ListHistory(c *gin.Context) {
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			mapDomainError(c, domain.ErrInvalidLimit)
			return
		}
		limit = n
	}

	records, err := h.predictionSvc.ListHistory(c.Request.Context(), limit, c.Query("model_name"))
	if err != nil {
		log.WithError(err).Error("list history failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.HistoryRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ToHistoryRecordResponse(r))
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) HistoryStats(c *gin.Context) {
	stats, err := h.predictionSvc.HistoryStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("history stats failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryStatsResponse(stats))
}
