package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

var (
	errMissingHeader = errors.New("missing Authorization header")
	errBadScheme     = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token from "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadScheme
	}
	return token, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="hotel"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: msg})
}

// AuthRequired rejects requests without a valid access token and stores the
// caller's identity on the gin context.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims, err := jwtManager.ParseAndValidate(token)
		if err != nil {
			logrus.WithError(err).WithField("path", c.Request.URL.Path).Debug("rejected access token")
			unauthorized(c, "invalid or expired token")
			return
		}

		SetIdentity(c, claims)
		c.Next()
	}
}
