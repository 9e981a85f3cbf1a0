package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/pkg/api"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/service"
	"operator-console/pkg/utils"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth пускает только запросы с валидным access-токеном консоли.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, err := m.principal(c)
		if err != nil {
			m.logger.Warn("AuthMiddleware: запрос отклонён", zap.Error(err))
			return api.ErrorResponse(c, err, m.logger)
		}
		c.SetRequest(c.Request().WithContext(utils.WithPrincipal(c.Request().Context(), principal)))
		return next(c)
	}
}

// Optional не отклоняет анонимные запросы: без токена обработчик получает пустой контекст.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if principal, err := m.principal(c); err == nil {
			c.SetRequest(c.Request().WithContext(utils.WithPrincipal(c.Request().Context(), principal)))
		}
		return next(c)
	}
}

func (m *AuthMiddleware) principal(c echo.Context) (utils.Principal, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return utils.Principal{}, apperrors.ErrEmptyAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return utils.Principal{}, apperrors.ErrInvalidAuthHeader
	}

	claims, err := m.jwtService.ValidateToken(parts[1])
	if err != nil {
		return utils.Principal{}, err
	}
	if claims.IsRefreshToken {
		return utils.Principal{}, apperrors.ErrTokenIsNotAccess
	}

	return utils.Principal{
		SessionID: claims.SessionID,
		UserID:    claims.UserID,
		Username:  claims.Username,
	}, nil
}
