package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/stats, the dashboard totals.
func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
