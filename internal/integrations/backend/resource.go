package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"operator-console/internal/entities"
	"operator-console/internal/integrations/dto"
)

// Resource - одна коллекция бэкенда. Записи нормализуются сразу после получения.
type Resource struct {
	client   *Client
	name     entities.Origin
	fixation bool
}

func (r *Resource) Name() entities.Origin { return r.name }

func (r *Resource) listPath() string { return string(r.name) + "/" }

func (r *Resource) itemPath(id string) string {
	return string(r.name) + "/" + url.PathEscape(id) + "/"
}

func (r *Resource) List(ctx context.Context, params dto.ListParams) (*dto.Page, error) {
	return r.client.page(ctx, r.listPath(), params)
}

func (r *Resource) Retrieve(ctx context.Context, id string) (entities.Record, error) {
	return r.client.record(ctx, request{method: http.MethodGet, path: r.itemPath(id)})
}

func (r *Resource) Create(ctx context.Context, payload map[string]any) (entities.Record, error) {
	req, err := jsonRequest(http.MethodPost, r.listPath(), payload)
	if err != nil {
		return nil, err
	}
	return r.client.record(ctx, req)
}

// Update - PUT, либо PATCH при partial.
func (r *Resource) Update(ctx context.Context, id string, payload map[string]any, partial bool) (entities.Record, error) {
	method := http.MethodPut
	if partial {
		method = http.MethodPatch
	}
	req, err := jsonRequest(method, r.itemPath(id), payload)
	if err != nil {
		return nil, err
	}
	return r.client.record(ctx, req)
}

func (r *Resource) Remove(ctx context.Context, id string) error {
	_, err := r.client.call(ctx, request{method: http.MethodDelete, path: r.itemPath(id)})
	return err
}

// Fixation - PATCH {id}/fixation/. У fixeds такой операции нет, запрос не отправляется.
func (r *Resource) Fixation(ctx context.Context, id string, payload map[string]any) (entities.Record, error) {
	if !r.fixation {
		return nil, fmt.Errorf("коллекция '%s' не поддерживает фиксацию", r.name)
	}
	req, err := jsonRequest(http.MethodPatch, string(r.name)+"/"+url.PathEscape(id)+"/fixation/", payload)
	if err != nil {
		return nil, err
	}
	return r.client.record(ctx, req)
}

// SearchAll - сквозной поиск /search-all/.
func (c *Client) SearchAll(ctx context.Context, params dto.ListParams) (*dto.Page, error) {
	return c.page(ctx, "search-all/", params)
}

// UploadExcel отправляет файл на /excel-uploads/ как multipart.
func (c *Client) UploadExcel(ctx context.Context, filename string, file io.Reader, extras dto.UploadExtras) (map[string]any, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("чтение файла для загрузки: %w", err)
	}
	if extras.OriginalName != "" {
		_ = w.WriteField("original_name", extras.OriginalName)
	}
	if extras.BatchTag != "" {
		_ = w.WriteField("batch_tag", extras.BatchTag)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	body, err := c.call(ctx, request{
		method:      http.MethodPost,
		path:        "excel-uploads/",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := decodeJSON(body, &out); err != nil {
			return nil, fmt.Errorf("ошибка парсинга ответа загрузки: %w", err)
		}
	}
	return out, nil
}

func (c *Client) page(ctx context.Context, path string, params dto.ListParams) (*dto.Page, error) {
	body, err := c.call(ctx, request{method: http.MethodGet, path: path, query: params.Values()})
	if err != nil {
		return nil, err
	}
	var page dto.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа %s: %w", path, err)
	}
	entities.NormalizeAll(page.Results)
	return &page, nil
}

// record возвращает nil-запись для пустого тела (например, 204).
func (c *Client) record(ctx context.Context, req request) (entities.Record, error) {
	body, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	rec, err := dto.DecodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга записи %s: %w", req.path, err)
	}
	return entities.Normalize(rec), nil
}

func decodeJSON(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}
