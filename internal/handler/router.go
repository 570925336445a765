package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"retreat/internal/auth"
	"retreat/internal/httpmiddleware"
)

// SubmitPath is the endpoint the registration form posts to.
const SubmitPath = "/functions/v1/submit-registration"

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Limiter       httpmiddleware.Limiter // nil disables rate limiting
	JWTSigningKey string
	JWTIssuer     string
	MaxBodyBytes  int64
	Log           zerolog.Logger
}

// NewRouter wires routes and middleware around h.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(cfg.Log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS(), httpmiddleware.Preflight())
	r.Use(httpmiddleware.SecurityHeaders())
	// MaxBodyBytes bounds the photo; the body cap adds room for the text
	// fields and multipart framing.
	bodyCap := int64(0)
	if cfg.MaxBodyBytes > 0 {
		bodyCap = cfg.MaxBodyBytes + 1<<20
		// parts beyond this spill to temp files rather than memory
		r.MaxMultipartMemory = bodyCap
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	submit := []gin.HandlerFunc{httpmiddleware.MaxBody(bodyCap), h.SubmitRegistration}
	if cfg.Limiter != nil {
		submit = append([]gin.HandlerFunc{httpmiddleware.RateLimit(cfg.Limiter, cfg.Log)}, submit...)
	}
	r.POST(SubmitPath, submit...)
	r.POST("/v1/registrations", submit...)

	admin := r.Group("/v1", auth.RequireRole(auth.RoleAdmin, cfg.JWTSigningKey, cfg.JWTIssuer))
	admin.GET("/registrations", h.ListRegistrations)

	return r
}
