package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundry-bot/config"
	"laundry-bot/internal/metrics"
	"laundry-bot/internal/mw"
	"laundry-bot/internal/store"
)

// NewRouter creates and configures the HTTP API router.
func NewRouter(s store.Store, cfg *config.Config, webpushOptions *webpush.Options) *gin.Engine {
	if !cfg.Bot.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, cfg.Location())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), 5, cfg.Server.RequestIPHeader)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/status", caching, handler.GetStatus)
		api.GET("/history", caching, handler.GetHistory)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.GET("/metrics", gin.WrapF(metrics.Handler))
	r.GET("/health", func(c *gin.Context) { c.String(200, "OK") })

	return r
}
