package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/entities"
	"operator-console/internal/services"
	"operator-console/pkg/api"
	"operator-console/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type JournalController struct {
	journalService services.JournalServiceInterface
	logger         *zap.Logger
}

func NewJournalController(journalService services.JournalServiceInterface, logger *zap.Logger) *JournalController {
	return &JournalController{journalService: journalService, logger: logger}
}

func (ctrl *JournalController) Stats(c echo.Context) error {
	stats, err := ctrl.journalService.Stats(c.Request().Context())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Статистика", stats)
}

// Serviced - журнал обслуженных; с format=xlsx отдаёт файл.
func (ctrl *JournalController) Serviced(c echo.Context) error {
	params := utils.ParseQuery(c.QueryParams())

	if c.QueryParam("format") == "xlsx" {
		return ctrl.export(c, params)
	}

	calls, total, err := ctrl.journalService.List(c.Request().Context(), params)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList[entities.ServicedCall](c, "Журнал обслуженных", calls, total, int(params.Page), int(params.Limit))
}

// export собирает файл в память, чтобы ошибка не пришла посреди ответа.
func (ctrl *JournalController) export(c echo.Context, params utils.QueryParams) error {
	var buf bytes.Buffer
	if err := ctrl.journalService.Export(c.Request().Context(), params, &buf); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	fileName := fmt.Sprintf("serviced_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
