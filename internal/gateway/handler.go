// internal/gateway/handler.go
package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"eduscribe-web/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loginUpstreamPath = "User/Login"

// Handler exposes the gateway's HTTP surface: the wildcard proxy and the
// dedicated login forward.
type Handler struct {
	relay   *Relay
	limiter *LoginLimiter // nil when Redis is not configured
	logger  *zap.Logger
}

func NewHandler(relay *Relay, limiter *LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{relay: relay, limiter: limiter, logger: logger}
}

// Proxy relays GET/POST/PUT/DELETE on the wildcard path to the upstream.
func (h *Handler) Proxy(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	h.relay.Forward(c, path)
}

// Options answers preflight on the wildcard route; the CORS middleware has
// already attached the headers.
func (h *Handler) Options(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Login forwards credentials to the upstream login endpoint, applying the
// login rate limit per IP+email when Redis is available. The limiter fails
// open: a Redis error never blocks a legitimate login.
func (h *Handler) Login(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.ServerError(c, err)
		return
	}

	if h.limiter != nil {
		var creds struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(raw, &creds)

		allowed, remaining, lerr := h.limiter.CheckLoginAttempt(c.Request.Context(), c.ClientIP(), creds.Email)
		if lerr != nil {
			h.logger.Warn("login rate limit check failed", zap.Error(lerr))
		} else if !allowed {
			h.logger.Info("login rate limited",
				zap.String("ip", c.ClientIP()),
				zap.Int64("remaining", remaining),
			)
			response.Error(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	h.relay.Forward(c, loginUpstreamPath)
}
