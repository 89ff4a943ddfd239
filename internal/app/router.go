// internal/app/router.go
package app

import (
	"eduscribe-web/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Gateway *gateway.Handler
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health & Metrics ====================
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== Auth Forward ====================
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", h.Gateway.Login)
	}

	// ==================== Upstream Proxy ====================
	proxy := r.Group("/api/proxy")
	{
		proxy.GET("/*path", h.Gateway.Proxy)
		proxy.POST("/*path", h.Gateway.Proxy)
		proxy.PUT("/*path", h.Gateway.Proxy)
		proxy.DELETE("/*path", h.Gateway.Proxy)
		proxy.OPTIONS("/*path", h.Gateway.Options)
	}
}
