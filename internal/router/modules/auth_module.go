package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tryohq/tryo-api/internal/container"
	handlers "github.com/tryohq/tryo-api/internal/interface/http"
	"github.com/tryohq/tryo-api/internal/interface/middleware"
	"github.com/tryohq/tryo-api/pkg/helpers"
)

// AuthModule wires the identity lifecycle routes.
// Public: POST /api/auth/resolve, /api/auth/login, /api/auth/register, /api/auth/refresh
// Protected: POST /api/logout, DELETE /api/account, POST /api/auth/verify/init|confirm

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	resolveLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)    // 10 req/min per IP
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIP(), nil)  // registration is rare
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)  // 60 req/min per IP

	rg.POST("/auth/resolve", resolveLimiter, m.Handler.Resolve)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.DELETE("/account", m.Handler.DeleteAccount)
		auth.POST("/auth/verify/init", middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.VerifyInit)
		auth.POST("/auth/verify/confirm", m.Handler.VerifyConfirm)
	}
}
