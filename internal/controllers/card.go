package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/services"
	"operator-console/pkg/api"
)

type CardController struct {
	cardService services.CardServiceInterface
	logger      *zap.Logger
}

func NewCardController(cardService services.CardServiceInterface, logger *zap.Logger) *CardController {
	return &CardController{cardService: cardService, logger: logger}
}

// GetCard - GET /cards/:id?src=actives|suspends|fixeds
func (ctrl *CardController) GetCard(c echo.Context) error {
	hint := dto.CardQueryDTO{Source: c.QueryParam("src")}
	if err := validate(c, &hint); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	card, err := ctrl.cardService.Resolve(c.Request().Context(), c.Param("id"), hint.Origin())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Карточка найдена", card)
}

// SaveCard заново находит запись, режим карточки определяется на сервере.
func (ctrl *CardController) SaveCard(c echo.Context) error {
	reqCtx := c.Request().Context()

	hint := dto.CardQueryDTO{Source: c.QueryParam("src")}
	if err := validate(c, &hint); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	var payload dto.DispositionDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	card, err := ctrl.cardService.Resolve(reqCtx, c.Param("id"), hint.Origin())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	res, err := ctrl.cardService.Save(reqCtx, card, payload.ToEntity())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	if res.Skipped {
		return api.SuccessOne(c, http.StatusAccepted, "Сохранение уже выполняется", res)
	}
	return api.SuccessOne(c, http.StatusOK, "Сохранено", res)
}

// StatusChanged подсказывает форме, какие поля заполнить при смене статуса звонка.
func (ctrl *CardController) StatusChanged(c echo.Context) error {
	var payload dto.StatusChangeDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	current := entities.Disposition{CallResult: payload.CallResult, AbonentAnswer: payload.AbonentAnswer}
	patch := services.OnStatusChanged(current, payload.CallStatus)
	return api.SuccessOne(c, http.StatusOK, "Поля для подстановки", patch)
}
