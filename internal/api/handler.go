package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ruangan-admin-backend/internal/model"
	"ruangan-admin-backend/internal/service"
	"ruangan-admin-backend/internal/store"
)

// Service is what the handlers need from the service layer.
type Service interface {
	store.Store
	UploadImages(ctx context.Context, ruanganID string, files []service.Upload) ([]model.Image, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc            Service
	webpush        *webpush.Options
	maxUploadBytes int64
	log            *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc Service, webpushOptions *webpush.Options, maxUploadBytes int64, log *zap.Logger) *Handler {
	return &Handler{
		svc:            svc,
		webpush:        webpushOptions,
		maxUploadBytes: maxUploadBytes,
		log:            log.Named("api"),
	}
}

// fail writes err as {"error": message}. The message is passed through as
// the backend produced it.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
