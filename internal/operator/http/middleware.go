package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/httputil"
	"github.com/allisson/newsletter/internal/operator/service"
	"github.com/allisson/newsletter/internal/operator/usecase"
)

const bearerPrefix = "bearer "

// AuthenticationMiddleware resolves the "Authorization: Bearer <token>" header
// to an active operator and stores it in the request context.
//
// Missing, malformed or unknown tokens get 401. Inactive operators get 403.
func AuthenticationMiddleware(
	operatorUseCase usecase.OperatorUseCase,
	tokenService service.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) <= len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		operator, err := operatorUseCase.Authenticate(c.Request.Context(), tokenService.HashToken(plainToken))
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithOperator(c.Request.Context(), operator))

		logger.Debug("authentication successful",
			slog.String("operator_id", operator.ID.String()),
			slog.String("operator_name", operator.Name))

		c.Next()
	}
}
