package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "operator-console/pkg/errors"
)

type Response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Body    T      `json:"body,omitempty"`
}

type ListBody[T any] struct {
	List       []T             `json:"list"`
	Pagination *PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

// SuccessOne - для возврата одного объекта
func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Status:  true,
		Message: message,
		Body:    data,
	})
}

func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, limit int) error {
	return c.JSON(http.StatusOK, Response[ListBody[T]]{
		Status:  true,
		Message: message,
		Body:    NewListBody(list, total, page, limit),
	})
}

func NewListBody[T any](list []T, total uint64, page, limit int) ListBody[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}
	if list == nil {
		list = make([]T, 0)
	}
	return ListBody[T]{
		List: list,
		Pagination: &PaginationMeta{
			TotalCount: total,
			TotalPages: totalPages,
			Page:       page,
			Limit:      limit,
		},
	}
}

// ErrorResponse отдаёт ошибку в общем конверте. Для HttpError берём только
// пользовательское сообщение и детали, без технической причины.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusOf(err)
	msg := err.Error()
	var details interface{}

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		msg = httpErr.Message
		details = httpErr.Details
	}

	if code >= http.StatusInternalServerError && logger != nil {
		logger.Error("Ошибка обработки запроса",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	}

	return c.JSON(code, Response[any]{
		Status:  false,
		Message: msg,
		Body:    details,
	})
}
