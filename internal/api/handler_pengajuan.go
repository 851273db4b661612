package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ruangan-admin-backend/internal/model"
)

// ListPengajuan handles GET /api/pengajuan?status=, newest first.
func (h *Handler) ListPengajuan(c *gin.Context) {
	status := model.PengajuanStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status "+string(status))
		return
	}
	list, err := h.svc.ListPengajuan(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetPengajuan(c *gin.Context) {
	p, err := h.svc.GetPengajuan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePengajuan handles POST /api/pengajuan. New requests are pending
// unless the body names another status.
func (h *Handler) CreatePengajuan(c *gin.Context) {
	var p model.Pengajuan
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	if p.Status != "" && !p.Status.Valid() {
		badRequest(c, "invalid status "+string(p.Status))
		return
	}
	created, err := h.svc.AddPengajuan(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ApprovePengajuan handles POST /api/pengajuan/:id/approve and returns the
// assignment it created.
func (h *Handler) ApprovePengajuan(c *gin.Context) {
	created, err := h.svc.ApprovePengajuan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) RejectPengajuan(c *gin.Context) {
	if err := h.svc.RejectPengajuan(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CancelPengajuan(c *gin.Context) {
	if err := h.svc.CancelPengajuan(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeletePengajuan(c *gin.Context) {
	if err := h.svc.DeletePengajuan(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
