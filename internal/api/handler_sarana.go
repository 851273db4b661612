package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ruangan-admin-backend/internal/model"
)

func (h *Handler) ListSarana(c *gin.Context) {
	list, err := h.svc.ListSarana(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSarana(c *gin.Context) {
	sr, err := h.svc.GetSarana(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

func (h *Handler) CreateSarana(c *gin.Context) {
	var sr model.Sarana
	if err := c.ShouldBindJSON(&sr); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.svc.AddSarana(c.Request.Context(), sr)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateSarana(c *gin.Context) {
	var sr model.Sarana
	if err := c.ShouldBindJSON(&sr); err != nil {
		badRequest(c, err.Error())
		return
	}
	sr.ID = c.Param("id")
	updated, err := h.svc.UpdateSarana(c.Request.Context(), sr)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteSarana(c *gin.Context) {
	if err := h.svc.DeleteSarana(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
