package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ruangan-admin-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint   string   `json:"endpoint" binding:"required"`
	P256DH     string   `json:"p256dh" binding:"required"`
	Auth       string   `json:"auth" binding:"required"`
	RuanganIDs []string `json:"ruanganIds"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	err := h.svc.SaveSubscription(c.Request.Context(), model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256DH:     req.P256DH,
		Auth:       req.Auth,
		RuanganIDs: req.RuanganIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.svc.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSubscription returns the rooms an endpoint is subscribed to.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		badRequest(c, "endpoint is required")
		return
	}
	sub, err := h.svc.GetSubscription(c.Request.Context(), endpoint)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ruanganIds": sub.RuanganIDs})
}
