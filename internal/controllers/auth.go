package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/services"
	"operator-console/pkg/api"
)

type AuthController struct {
	sessionService services.SessionServiceInterface
	logger         *zap.Logger
}

func NewAuthController(sessionService services.SessionServiceInterface, logger *zap.Logger) *AuthController {
	return &AuthController{sessionService: sessionService, logger: logger}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	session, err := ctrl.sessionService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("username", payload.Username), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Авторизация прошла успешно", session)
}

func (ctrl *AuthController) Refresh(c echo.Context) error {
	var payload dto.RefreshDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	session, err := ctrl.sessionService.Refresh(c.Request().Context(), payload.RefreshToken)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Токены успешно обновлены", session)
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	if err := ctrl.sessionService.Logout(c.Request().Context()); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Вы успешно вышли из системы", nil)
}

// Me отдаёт профиль или null для анонима; ошибкой не бывает.
func (ctrl *AuthController) Me(c echo.Context) error {
	profile := ctrl.sessionService.Bootstrap(c.Request().Context())
	return api.SuccessOne(c, http.StatusOK, "Профиль", profile)
}
