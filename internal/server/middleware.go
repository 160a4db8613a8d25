package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/service"
)

const claimsKey = "auth_claims"

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery converts panics into a 500 without killing the process.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panic", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
					Meta: Meta{Code: http.StatusInternalServerError, Message: "internal error"},
				})
			}
		}()
		c.Next()
	}
}

// authRequired validates the bearer token and restricts the route to the
// listed roles.
func (s *Server) authRequired(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Meta: Meta{Code: http.StatusUnauthorized, Message: "missing bearer token"},
			})
			return
		}

		claims, err := s.registry.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Meta: Meta{Code: http.StatusUnauthorized, Message: "invalid token"},
			})
			return
		}

		allowed := false
		for _, r := range roles {
			if claims.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Meta: Meta{Code: http.StatusForbidden, Message: "role not permitted"},
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// adminRequired guards root-only routes with the deployment admin key.
func (s *Server) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Meta: Meta{Code: http.StatusUnauthorized, Message: "invalid admin key"},
			})
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *service.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
