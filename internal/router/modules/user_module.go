package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tryohq/tryo-api/internal/container"
	handlers "github.com/tryohq/tryo-api/internal/interface/http"
	"github.com/tryohq/tryo-api/internal/interface/middleware"
	"github.com/tryohq/tryo-api/pkg/helpers"
)

// UserModule wires profile routes.
// Public: GET /api/profiles/:name
// Protected: GET /api/profile, PUT /api/profile, POST /api/profile/files

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	publicLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/profiles/:name", publicLimiter, m.Handler.PublicProfile)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/files", middleware.RateLimit(container.GetRedis(), 20, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadFile)
	}
}
