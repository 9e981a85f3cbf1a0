package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/services"
	"operator-console/pkg/api"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/utils"
)

// importTimeout - большой файл пишется в базу пачками и может пересылаться на бэкенд.
const importTimeout = 5 * time.Minute

type ImportController struct {
	importerService services.ImporterServiceInterface
	logger          *zap.Logger
}

func NewImportController(importerService services.ImporterServiceInterface, logger *zap.Logger) *ImportController {
	return &ImportController{importerService: importerService, logger: logger}
}

// Import - multipart: file, forward, batch_tag.
func (ctrl *ImportController) Import(c echo.Context) error {
	var opts dto.ImportOptionsDTO
	if err := bindAndValidate(c, &opts); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return api.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл не передан", err, map[string]string{"file": "обязательное поле"}),
			ctrl.logger)
	}
	src, err := fileHeader.Open()
	if err != nil {
		return api.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть файл", err, nil), ctrl.logger)
	}
	defer src.Close()

	reqCtx, cancel := utils.ContextWithTimeout(c, importTimeout)
	defer cancel()

	res, err := ctrl.importerService.Import(reqCtx, fileHeader.Filename, fileHeader.Size, src, opts)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Файл импортирован", res)
}

// Records - GET /admin/records?search=&columns=&sort=&page=&limit=
func (ctrl *ImportController) Records(c echo.Context) error {
	params := utils.ParseQuery(c.QueryParams())

	items, total, err := ctrl.importerService.Browse(c.Request().Context(), params)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList[entities.ImportedRecord](c, "Импортированные записи", items, total, int(params.Page), int(params.Limit))
}

func (ctrl *ImportController) Clear(c echo.Context) error {
	if err := ctrl.importerService.Clear(c.Request().Context()); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Импортированные записи удалены", nil)
}
