package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ruangan-admin-backend/config"
	"ruangan-admin-backend/internal/mw"
)

// Cache tags. A write invalidates every tag whose cached views it changes.
const (
	tagKategori  = "kategori"
	tagSarana    = "sarana"
	tagRuangan   = "ruangan"
	tagPengajuan = "pengajuan"
	tagStats     = "stats"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(log.Named("http")))

	if cfg.Blob.Backend == "local" {
		r.Static(cfg.Blob.PublicPath, cfg.Blob.Dir)
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	tc := mw.NewTagCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/stats", tc.Cache(tagStats), h.GetStats)

		kategori := api.Group("/kategori")
		{
			write := tc.Invalidates(tagKategori, tagStats)
			kategori.GET("", tc.Cache(tagKategori), h.ListKategori)
			kategori.POST("", write, h.CreateKategori)
			kategori.GET("/:id", tc.Cache(tagKategori), h.GetKategori)
			kategori.PUT("/:id", write, h.UpdateKategori)
			kategori.DELETE("/:id", write, h.DeleteKategori)
		}

		sarana := api.Group("/sarana")
		{
			write := tc.Invalidates(tagSarana)
			sarana.GET("", tc.Cache(tagSarana), h.ListSarana)
			sarana.POST("", write, h.CreateSarana)
			sarana.GET("/:id", tc.Cache(tagSarana), h.GetSarana)
			sarana.PUT("/:id", write, h.UpdateSarana)
			sarana.DELETE("/:id", write, h.DeleteSarana)
		}

		ruangan := api.Group("/ruangan")
		{
			write := tc.Invalidates(tagRuangan, tagStats)
			ruangan.GET("", tc.Cache(tagRuangan), h.ListRuangan)
			ruangan.POST("", write, h.CreateRuangan)
			ruangan.GET("/:id", tc.Cache(tagRuangan), h.GetRuangan)
			ruangan.PUT("/:id", write, h.UpdateRuangan)
			ruangan.DELETE("/:id", write, h.DeleteRuangan)
			ruangan.GET("/:id/sarana", tc.Cache(tagRuangan), h.ListSaranaRuangan)
			ruangan.POST("/:id/images", write, h.UploadImages)
		}

		pengajuan := api.Group("/pengajuan")
		{
			write := tc.Invalidates(tagPengajuan)
			pengajuan.GET("", tc.Cache(tagPengajuan), h.ListPengajuan)
			pengajuan.POST("", write, h.CreatePengajuan)
			pengajuan.GET("/:id", tc.Cache(tagPengajuan), h.GetPengajuan)
			pengajuan.DELETE("/:id", write, h.DeletePengajuan)
			pengajuan.POST("/:id/approve", tc.Invalidates(tagPengajuan, tagRuangan, tagStats), h.ApprovePengajuan)
			pengajuan.POST("/:id/reject", write, h.RejectPengajuan)
			pengajuan.POST("/:id/cancel", write, h.CancelPengajuan)
		}

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
