package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/services"
	"operator-console/pkg/api"
	apperrors "operator-console/pkg/errors"
)

type PreferencesController struct {
	preferencesService services.PreferencesServiceInterface
	logger             *zap.Logger
}

func NewPreferencesController(preferencesService services.PreferencesServiceInterface, logger *zap.Logger) *PreferencesController {
	return &PreferencesController{preferencesService: preferencesService, logger: logger}
}

// GetColumns; с ?present=a,b список сначала сверяется с колонками текущей выдачи.
func (ctrl *PreferencesController) GetColumns(c echo.Context) error {
	reqCtx := c.Request().Context()

	var (
		cols []string
		err  error
	)
	if present := c.QueryParam("present"); present != "" {
		cols, err = ctrl.preferencesService.ReconcileColumns(reqCtx, strings.Split(present, ","))
	} else {
		cols, err = ctrl.preferencesService.Columns(reqCtx)
	}
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Видимые колонки", dto.ColumnsDTO{Columns: cols})
}

// PutColumns - тело {columns} или ?preset=default|all.
func (ctrl *PreferencesController) PutColumns(c echo.Context) error {
	reqCtx := c.Request().Context()

	var payload dto.SetColumnsDTO
	if err := c.Bind(&payload); err != nil {
		return api.ErrorResponse(c, apperrors.NewBadRequestError("Неверный формат данных"), ctrl.logger)
	}

	var (
		cols []string
		err  error
	)
	switch preset := c.QueryParam("preset"); preset {
	case "default":
		cols, err = ctrl.preferencesService.ResetColumns(reqCtx)
	case "all":
		cols, err = ctrl.preferencesService.SetAllColumns(reqCtx, payload.Available)
	case "":
		cols, err = ctrl.preferencesService.SetColumns(reqCtx, payload.Columns)
	default:
		err = apperrors.NewHttpError(http.StatusBadRequest, "Неизвестный пресет", nil, map[string]string{"preset": preset})
	}
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Колонки сохранены", dto.ColumnsDTO{Columns: cols})
}

func (ctrl *PreferencesController) DeleteColumns(c echo.Context) error {
	if err := ctrl.preferencesService.ClearColumns(c.Request().Context()); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Колонки сброшены", dto.ColumnsDTO{Columns: []string{}})
}
