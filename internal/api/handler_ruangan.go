package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ruangan-admin-backend/internal/model"
	"ruangan-admin-backend/internal/service"
)

// updateRuanganRequest is the PUT body: the room fields, the version the
// client read, and the complete new assignment list.
type updateRuanganRequest struct {
	model.Ruangan
	Sarana []model.SaranaRuangan `json:"sarana"`
}

func (h *Handler) ListRuangan(c *gin.Context) {
	list, err := h.svc.ListRuangan(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetRuangan(c *gin.Context) {
	r, err := h.svc.GetRuangan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) CreateRuangan(c *gin.Context) {
	var r model.Ruangan
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.svc.AddRuangan(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateRuangan handles PUT /api/ruangan/:id. A stale version yields 409.
func (h *Handler) UpdateRuangan(c *gin.Context) {
	var req updateRuanganRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Version < 1 {
		badRequest(c, "version is required")
		return
	}
	req.Ruangan.ID = c.Param("id")

	updated, err := h.svc.UpdateRuangan(c.Request.Context(), req.Ruangan, req.Sarana)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteRuangan(c *gin.Context) {
	if err := h.svc.DeleteRuangan(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSaranaRuangan handles GET /api/ruangan/:id/sarana.
func (h *Handler) ListSaranaRuangan(c *gin.Context) {
	list, err := h.svc.ListSaranaRuangan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UploadImages handles POST /api/ruangan/:id/images with one or more
// multipart "images" parts. The room's image list is replaced.
func (h *Handler) UploadImages(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		badRequest(c, "no images uploaded")
		return
	}

	files := make([]service.Upload, len(headers))
	for i, fh := range headers {
		files[i] = service.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}

	images, err := h.svc.UploadImages(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}
