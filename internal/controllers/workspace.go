package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/services"
	"operator-console/pkg/api"
	"operator-console/pkg/config"
)

type WorkspaceController struct {
	searchService      services.SearchServiceInterface
	preferencesService services.PreferencesServiceInterface
	cfg                config.ConsoleConfig
	logger             *zap.Logger
}

func NewWorkspaceController(
	searchService services.SearchServiceInterface,
	preferencesService services.PreferencesServiceInterface,
	cfg config.ConsoleConfig,
	logger *zap.Logger,
) *WorkspaceController {
	return &WorkspaceController{
		searchService:      searchService,
		preferencesService: preferencesService,
		cfg:                cfg,
		logger:             logger,
	}
}

// Search - GET /workspace/search?q=&by=&page=&ps=&ord=
func (ctrl *WorkspaceController) Search(c echo.Context) error {
	reqCtx := c.Request().Context()
	state := services.ParseSearchState(c.QueryParams(), dto.SearchStateDTO{
		Page:     1,
		PageSize: ctrl.cfg.DefaultPageSize,
		Ordering: ctrl.cfg.DefaultOrdering,
		Fields:   services.DefaultSearchFields,
	})

	query, err := searchQuery(c, state)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	state.Fields = query.Fields

	result, err := ctrl.searchService.Search(reqCtx, query)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	if !result.Superseded {
		if err := ctrl.preferencesService.SaveSearch(reqCtx, state); err != nil {
			ctrl.logger.Warn("Не удалось запомнить поиск", zap.Error(err))
		}
	}
	return api.SuccessOne(c, http.StatusOK, "Результаты поиска", result)
}

// Stale возвращает и сбрасывает флаг "список устарел".
func (ctrl *WorkspaceController) Stale(c echo.Context) error {
	stale, err := ctrl.searchService.ConsumeStale(c.Request().Context())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Флаг актуальности", dto.StaleDTO{Stale: stale})
}

func (ctrl *WorkspaceController) SearchState(c echo.Context) error {
	state, err := ctrl.preferencesService.RestoreSearch(c.Request().Context(), c.QueryParams())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Состояние поиска", state)
}

// searchQuery: явно переданные поля поиска проверяются, неизвестное поле - ошибка 400.
func searchQuery(c echo.Context, state dto.SearchStateDTO) (dto.SearchQueryDTO, error) {
	query := dto.SearchQueryDTO{
		Query:    state.Query,
		Fields:   state.Fields,
		Page:     state.Page,
		PageSize: state.PageSize,
		Ordering: state.Ordering,
	}
	if fields := services.SplitFields(c.QueryParam("by")); len(fields) > 0 {
		query.Fields = fields
	}
	return query, validate(c, &query)
}
