package router

import (
	"github.com/tryohq/tryo-api/internal/application"
	"github.com/tryohq/tryo-api/internal/container"
	pginfra "github.com/tryohq/tryo-api/internal/infrastructure/postgres"
	handlers "github.com/tryohq/tryo-api/internal/interface/http"
	"github.com/tryohq/tryo-api/internal/router/modules"
)

func buildIdentityService() *application.IdentityService {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())
	return application.NewIdentityService(
		repo,
		application.NewSelfAssertedVerifier(),
		container.GetJWT(),
		container.GetRedis(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRabbitPub(),
		container.GetLogger(),
		cfg.MailSendEnabled,
	)
}

func buildPostService() *application.PostService {
	cfg := container.GetConfig()
	repo := pginfra.NewPostRepository(container.GetPGPool())
	return application.NewPostService(
		repo,
		container.GetES(),
		cfg.ESPostsIndex,
		container.GetEnhancer(),
		container.GetLogger(),
	)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	identity := buildIdentityService()
	posts := buildPostService()

	authHandler := handlers.NewAuthHandler(identity, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(identity, logger)
	postHandler := handlers.NewPostHandler(posts, logger)

	r.Add(modules.NewAuthModule(authHandler, jwt))
	r.Add(modules.NewUserModule(userHandler, jwt))
	r.Add(modules.NewPostModule(postHandler, jwt))
}
