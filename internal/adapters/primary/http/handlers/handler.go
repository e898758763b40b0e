package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vinprj/predictml/internal/core/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	predictionSvc *services.PredictionService
	store         Pinger
}

func New(predictionSvc *services.PredictionService, store Pinger) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		store:         store,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Ready)

	// Predictions
	r.POST("/predict/:model_name", h.Predict)

	// Models
	r.GET("/models", h.ListModels)
	r.GET("/models/:model_name", h.GetModel)
	r.GET("/models/:model_name/feature-importance", h.FeatureImportance)
	r.GET("/catalog", h.Catalog)

	// History
	r.GET("/history", h.ListHistory)
	r.GET("/history/stats", h.HistoryStats)
}
