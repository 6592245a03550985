package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tryohq/tryo-api/internal/container"
	handlers "github.com/tryohq/tryo-api/internal/interface/http"
	"github.com/tryohq/tryo-api/internal/interface/middleware"
	"github.com/tryohq/tryo-api/pkg/helpers"
)

// PostModule wires the project board routes.
// Public: GET /api/posts, GET /api/posts/search, GET /api/posts/:id
// Protected: POST /api/posts, POST /api/posts/enhance

type PostModule struct {
	Handler *handlers.PostHandler
	JWT     *helpers.JWTManager
}

func NewPostModule(h *handlers.PostHandler, jwt *helpers.JWTManager) *PostModule {
	return &PostModule{Handler: h, JWT: jwt}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	// In-cluster health checks hit the board; let private IPs through
	browseLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	searchLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/posts", browseLimiter, m.Handler.List)
	rg.GET("/posts/search", searchLimiter, m.Handler.Search)
	rg.GET("/posts/:id", browseLimiter, m.Handler.Get)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/posts", m.Handler.Create)
		// Enhancement hits a paid model endpoint, keep the limit tight
		auth.POST("/posts/enhance", middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.Enhance)
	}
}
