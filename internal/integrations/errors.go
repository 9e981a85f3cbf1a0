package integrations

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError - не-2xx ответ бэкенда: код, разобранное тело и сообщение для оператора.
type APIError struct {
	Status  int
	Message string
	Payload map[string]any
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus позволяет pkg/errors отдать клиенту тот же код.
func (e *APIError) HTTPStatus() int { return e.Status }

// NewAPIError выбирает сообщение так же, как это делает консоль:
// detail, затем error, затем текст статуса, затем "HTTP <код>".
func NewAPIError(status int, payload map[string]any) *APIError {
	if payload == nil {
		payload = map[string]any{}
	}
	msg := ""
	for _, key := range []string{"detail", "error"} {
		if v, ok := payload[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				msg = s
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{Status: status, Message: msg, Payload: payload}
}

// StatusOf возвращает HTTP-код ошибки бэкенда или 0 для прочих ошибок.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
