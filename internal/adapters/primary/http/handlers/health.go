package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) Root(c *gin.Context) {
	specs := h.predictionSvc.Catalog()

	endpoints := make(map[string]string, len(specs))
	for _, s := range specs {
		if s.Served {
			endpoints[s.Name] = "/predict/" + s.Name
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "PredictML API",
		"endpoints": endpoints,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready checks the store. Liveness stays on /health.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		log.WithError(err).Warn("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
