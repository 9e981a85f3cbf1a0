package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/services"
	"operator-console/pkg/api"
)

// ServicedController - таблица обслуженных абонентов (коллекция fixeds бэкенда).
type ServicedController struct {
	servicedService    services.ServicedServiceInterface
	preferencesService services.PreferencesServiceInterface
	logger             *zap.Logger
}

func NewServicedController(
	servicedService services.ServicedServiceInterface,
	preferencesService services.PreferencesServiceInterface,
	logger *zap.Logger,
) *ServicedController {
	return &ServicedController{
		servicedService:    servicedService,
		preferencesService: preferencesService,
		logger:             logger,
	}
}

// List - GET /workspace/serviced?q=&by=&page=&ps=&ord=
func (ctrl *ServicedController) List(c echo.Context) error {
	state := services.ParseSearchState(c.QueryParams(), ctrl.preferencesService.DefaultState())
	query, err := searchQuery(c, state)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	state.Fields = query.Fields

	result, err := ctrl.servicedService.List(c.Request().Context(), state)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Обслуженные абоненты", result)
}

func (ctrl *ServicedController) State(c echo.Context) error {
	state, err := ctrl.preferencesService.RestoreSearch(c.Request().Context(), c.QueryParams())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Состояние поиска", state)
}
