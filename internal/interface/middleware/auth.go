package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tryohq/tryo-api/pkg/helpers"
	"github.com/tryohq/tryo-api/pkg/response"
)

// Auth validates the access token and ensures an active session exists in Redis.
// The session id baked into the token must match the one stored server-side, so
// refreshing rotates old tokens out. Sets userID and userName in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}

		// Retrieve session from Redis as a hash
		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
			c.Abort()
			return
		}
		if claims.SessionID == "" || data["sid"] != claims.SessionID {
			response.Error[any](c, http.StatusUnauthorized, "session expired", nil)
			c.Abort()
			return
		}

		c.Set("userID", data["user_id"]) // required by handlers
		c.Set("userName", data["name"])  // extra convenience
		c.Next()
	}
}
