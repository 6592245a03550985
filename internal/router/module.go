package router

import "github.com/gin-gonic/gin"

// Module is one routable feature area (auth, user, post). Each implementation
// owns its sub-group, handlers and per-route rate limits.
type Module interface {
	Register(rg *gin.RouterGroup)
}
