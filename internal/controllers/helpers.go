package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/validation"
)

// bindAndValidate разбирает тело запроса и проверяет его до любых обращений к бэкенду.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		return apperrors.NewBadRequestError("Неверный формат данных")
	}
	return validate(c, payload)
}

// validate проверяет уже собранный запрос (параметры строки запроса), ошибки - по полям.
func validate(c echo.Context, payload interface{}) error {
	if err := c.Validate(payload); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			return apperrors.NewHttpError(http.StatusBadRequest, "Ошибка валидации", err, fields)
		}
		return apperrors.NewHttpError(http.StatusBadRequest, "Ошибка валидации", err, nil)
	}
	return nil
}
