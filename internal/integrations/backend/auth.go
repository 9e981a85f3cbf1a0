package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login получает пару токенов и запоминает имя пользователя как последний вход.
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	req, err := jsonRequest(http.MethodPost, "auth/token/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return Tokens{}, err
	}

	resp, _, err := c.send(ctx, req, false)
	if err != nil {
		return Tokens{}, err
	}
	if !resp.ok() {
		return Tokens{}, errorFrom(resp)
	}

	var data tokenResponse
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return Tokens{}, fmt.Errorf("ошибка парсинга ответа с токеном: %w", err)
	}
	if data.Access == "" {
		return Tokens{}, fmt.Errorf("бэкенд не вернул access-токен")
	}

	tokens := Tokens{Access: data.Access, Refresh: data.Refresh, Username: username}
	if err := c.tokens.Save(ctx, tokens); err != nil {
		return Tokens{}, fmt.Errorf("сохранение токенов: %w", err)
	}
	return tokens, nil
}

// Refresh обновляет access-токен. Параллельные вызовы в рамках одной сессии
// разделяют один сетевой запрос.
func (c *Client) Refresh(ctx context.Context) bool {
	current, err := c.tokens.Load(ctx)
	if err != nil {
		return false
	}
	return c.refreshAfter(ctx, current.Access)
}

// refreshAfter обновляет токен, если stale всё ещё текущий. Если кто-то уже
// успел обновить токен, повторного запроса не будет.
func (c *Client) refreshAfter(ctx context.Context, stale string) bool {
	if fresh(c.currentTokens(ctx), stale) {
		return true
	}

	shared := context.WithoutCancel(ctx)
	v, _, _ := c.refreshGroup.Do(c.tokens.Key(ctx), func() (interface{}, error) {
		current := c.currentTokens(shared)
		if fresh(current, stale) {
			return true, nil
		}
		return c.refresh(shared, current), nil
	})
	ok, _ := v.(bool)
	return ok
}

func fresh(current Tokens, stale string) bool {
	return current.Access != "" && current.Access != stale
}

func (c *Client) currentTokens(ctx context.Context) Tokens {
	t, err := c.tokens.Load(ctx)
	if err != nil {
		return Tokens{}
	}
	return t
}

func (c *Client) refresh(ctx context.Context, current Tokens) bool {
	if current.Refresh == "" {
		return false
	}

	req, err := jsonRequest(http.MethodPost, "auth/token/refresh/", map[string]string{"refresh": current.Refresh})
	if err != nil {
		return false
	}
	resp, _, err := c.send(ctx, req, false)
	if err != nil {
		c.logger.Warn("Ошибка обновления токена", zap.Error(err))
		return false
	}
	if !resp.ok() {
		c.logger.Info("Бэкенд отклонил обновление токена", zap.Int("status", resp.status))
		return false
	}

	var data tokenResponse
	if err := json.Unmarshal(resp.body, &data); err != nil || data.Access == "" {
		c.logger.Warn("Некорректный ответ на обновление токена", zap.Error(err))
		return false
	}

	next := Tokens{Access: data.Access, Refresh: data.Refresh, Username: current.Username}
	if next.Refresh == "" {
		next.Refresh = current.Refresh
	}
	if err := c.tokens.Save(ctx, next); err != nil {
		c.logger.Warn("Не удалось сохранить обновлённые токены", zap.Error(err))
		return false
	}
	return true
}

// Me возвращает профиль текущего пользователя как есть.
// Если у бэкенда нет эндпоинта профиля (404), собирается минимальный профиль
// по имени последнего входа.
func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "auth/me/"})
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusNotFound {
		username := c.currentTokens(ctx).Username
		if username == "" {
			username = "user"
		}
		return map[string]any{
			"id":       0,
			"username": username,
			"role":     "operator",
			"position": "operator",
			"name":     username,
			"initials": firstUpper(username),
		}, nil
	}
	if !resp.ok() {
		return nil, errorFrom(resp)
	}

	var data map[string]any
	if err := decodeJSON(resp.body, &data); err != nil {
		return nil, fmt.Errorf("ошибка парсинга профиля: %w", err)
	}
	return data, nil
}

// Logout удаляет токены сессии.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	if r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}
