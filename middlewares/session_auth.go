package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stylefit/utils"
)

const SessionIDKey = "sessionID"

// SessionAuth checks the session token against the :id path parameter. The token comes
// from the Authorization header, or from ?token= where headers cannot be set (websocket).
func SessionAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			return
		}

		sid, err := utils.ParseSessionToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if sid != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not belong to this session"})
			return
		}

		c.Set(SessionIDKey, sid)
		c.Next()
	}
}
