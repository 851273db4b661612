package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ruangan-admin-backend/internal/model"
)

// ListKategori handles GET /api/kategori.
func (h *Handler) ListKategori(c *gin.Context) {
	list, err := h.svc.ListKategori(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetKategori handles GET /api/kategori/:id.
func (h *Handler) GetKategori(c *gin.Context) {
	k, err := h.svc.GetKategori(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, k)
}

// CreateKategori handles POST /api/kategori.
func (h *Handler) CreateKategori(c *gin.Context) {
	var k model.Kategori
	if err := c.ShouldBindJSON(&k); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.svc.AddKategori(c.Request.Context(), k)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateKategori handles PUT /api/kategori/:id.
func (h *Handler) UpdateKategori(c *gin.Context) {
	var k model.Kategori
	if err := c.ShouldBindJSON(&k); err != nil {
		badRequest(c, err.Error())
		return
	}
	k.ID = c.Param("id")
	updated, err := h.svc.UpdateKategori(c.Request.Context(), k)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteKategori handles DELETE /api/kategori/:id.
func (h *Handler) DeleteKategori(c *gin.Context) {
	if err := h.svc.DeleteKategori(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
