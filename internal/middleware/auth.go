package middleware

import (
	"net/http"
	"strings"

	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

const ContextUserIDKey = "user_id"

// AuthMiddleware Bearer token 鉴权：JWT 校验 + redis 会话比对，
// 会话不一致视为账号在别处登录
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticate(c)
		if !ok {
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth 带 token 就解析注入，不带照常放行（公共列表用）
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}
		if claims, err := pkg.ParseAccess(parts[1]); err == nil {
			sessions := &redis.SessionRepository{}
			if stored, err := sessions.GetUserToken(claims.UserID); err == nil && stored == parts[1] {
				c.Set(ContextUserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context) (uint64, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing authorization header"})
		return 0, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authorization format"})
		return 0, false
	}
	tokenStr := parts[1]

	claims, err := pkg.ParseAccess(tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return 0, false
	}

	// redis 比对会话 token，顶号即失效
	sessions := &redis.SessionRepository{}
	stored, err := sessions.GetUserToken(claims.UserID)
	if err != nil || stored != tokenStr {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Session expired, please sign in again"})
		return 0, false
	}

	// 活跃会话顺延过期时间
	if err := sessions.ExtendUserToken(claims.UserID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return 0, false
	}
	return claims.UserID, true
}

// UserID 从上下文取当前登录用户，0 表示未登录
func UserID(c *gin.Context) uint64 {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}
