package middleware

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"net/http"
	"strings"
	"video-consult/constant"
	"video-consult/service"
)

const callerKey = "caller"

// Identity reads the caller from an HS256 bearer token whose "sub" claim is
// the user. Requests without an Authorization header run as Guest.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(callerKey, service.Caller{User: constant.GuestUser})
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "malformed authorization header")
			return
		}

		user, err := parseSubject(tokenString, secret)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected bearer token")
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(callerKey, service.Caller{User: user})
		zerolog.Ctx(c.Request.Context()).UpdateContext(func(l zerolog.Context) zerolog.Context {
			return l.Str("user", user)
		})
		c.Next()
	}
}

func CallerFrom(c *gin.Context) service.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(service.Caller); ok {
			return caller
		}
	}
	return service.Caller{User: constant.GuestUser}
}

func parseSubject(tokenString, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	sub, _ := claims["sub"].(string)
	if sub == "" || sub == constant.GuestUser {
		return "", errors.New("token has no subject")
	}

	return sub, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"type":    "unauthorized",
			"message": message,
		},
	})
}
