// Файл: internal/integrations/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"operator-console/internal/entities"
	"operator-console/internal/integrations"
)

// Client - клиент REST-бэкенда с коллекциями абонентов.
// Подставляет Bearer-токен, при 401 один раз обновляет токен и повторяет запрос.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *zap.Logger

	refreshGroup singleflight.Group

	Actives  *Resource
	Suspends *Resource
	Fixeds   *Resource
}

func New(baseURL string, timeout time.Duration, tokens TokenStore, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger.Named("backend"),
	}
	c.Actives = &Resource{client: c, name: entities.OriginActives, fixation: true}
	c.Suspends = &Resource{client: c, name: entities.OriginSuspends, fixation: true}
	c.Fixeds = &Resource{client: c, name: entities.OriginFixeds}
	return c
}

// Registry регистрирует три коллекции клиента в реестре.
func (c *Client) Registry() (*integrations.Registry, error) {
	return integrations.NewRegistry(c.Actives, c.Suspends, c.Fixeds)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

type rawResponse struct {
	status int
	body   []byte
}

func (r *rawResponse) ok() bool { return r.status >= 200 && r.status < 300 }

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		req.body = raw
	}
	return req, nil
}

// do выполняет запрос с авторизацией. На 401 пробует обновить токен ровно один раз;
// если обновить не удалось, токены очищаются и наружу уходит исходный 401.
func (c *Client) do(ctx context.Context, req request) (*rawResponse, error) {
	resp, used, err := c.send(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized || used.Refresh == "" {
		return resp, nil
	}

	if !c.refreshAfter(ctx, used.Access) {
		if err := c.tokens.Clear(ctx); err != nil {
			c.logger.Warn("Не удалось очистить токены после неудачного обновления", zap.Error(err))
		}
		return resp, nil
	}

	retried, _, err := c.send(ctx, req, true)
	return retried, err
}

// send - один HTTP-вызов. authorize=false для эндпоинтов авторизации.
func (c *Client) send(ctx context.Context, req request, authorize bool) (*rawResponse, Tokens, error) {
	var tokens Tokens
	if authorize {
		var err error
		tokens, err = c.tokens.Load(ctx)
		if err != nil {
			return nil, tokens, fmt.Errorf("чтение токенов сессии: %w", err)
		}
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.url(req.path, req.query), body)
	if err != nil {
		return nil, tokens, fmt.Errorf("ошибка создания запроса %s %s: %w", req.method, req.path, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	} else {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if tokens.Access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tokens.Access)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, tokens, fmt.Errorf("ошибка выполнения запроса %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tokens, fmt.Errorf("чтение ответа %s %s: %w", req.method, req.path, err)
	}

	c.logger.Debug("Запрос к бэкенду",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)),
	)
	return &rawResponse{status: resp.StatusCode, body: raw}, tokens, nil
}

// errorFrom строит APIError из не-2xx ответа; тело, которое не JSON, игнорируется.
func errorFrom(resp *rawResponse) error {
	payload := map[string]any{}
	if len(resp.body) > 0 {
		_ = json.Unmarshal(resp.body, &payload)
	}
	return integrations.NewAPIError(resp.status, payload)
}

// call выполняет запрос и возвращает тело успешного ответа.
func (c *Client) call(ctx context.Context, req request) ([]byte, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, errorFrom(resp)
	}
	return resp.body, nil
}
