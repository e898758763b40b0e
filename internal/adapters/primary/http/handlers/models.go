package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/adapters/primary/http/dto"
)

func (h *Handler) ListModels(c *gin.Context) {
	models, err := h.predictionSvc.ListModels(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("list models failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ModelMetadataResponse, 0, len(models))
	for _, m := range models {
		items = append(items, dto.ToModelMetadataResponse(m))
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetModel(c *gin.Context) {
	meta, spec, err := h.predictionSvc.GetModel(c.Request.Context(), c.Param("model_name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelDetailResponse(meta, spec))
}

func (h *Handler) FeatureImportance(c *gin.Context) {
	fi, err := h.predictionSvc.FeatureImportance(c.Param("model_name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFeatureImportanceResponse(fi))
}

func (h *Handler) Catalog(c *gin.Context) {
	specs := h.predictionSvc.Catalog()

	items := make([]dto.CatalogEntryResponse, 0, len(specs))
	for _, s := range specs {
		items = append(items, dto.ToCatalogEntryResponse(s))
	}
	c.JSON(http.StatusOK, items)
}
