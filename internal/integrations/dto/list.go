// Файл: internal/integrations/dto/list.go
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"operator-console/internal/entities"
)

// ListParams - общие параметры выборки коллекции и сквозного поиска.
type ListParams struct {
	Query    string
	Fields   []string
	Page     int
	PageSize int
	Ordering string
}

// Values собирает query-строку; пустые значения не передаются.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if len(p.Fields) > 0 {
		v.Set("fields", strings.Join(p.Fields, ","))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Ordering != "" {
		v.Set("ordering", p.Ordering)
	}
	return v
}

// Page - страница выборки. Бэкенд отдаёт либо {results, count}, либо голый массив.
type Page struct {
	Results []entities.Record `json:"results"`
	Count   int               `json:"count"`
}

func (p *Page) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Page{Results: []entities.Record{}}
		return nil
	}

	if trimmed[0] == '[' {
		var list []entities.Record
		if err := decodeNumbers(trimmed, &list); err != nil {
			return fmt.Errorf("разбор списка записей: %w", err)
		}
		*p = Page{Results: nonNil(list), Count: len(list)}
		return nil
	}

	var envelope struct {
		Results []entities.Record `json:"results"`
		Count   *int              `json:"count"`
	}
	if err := decodeNumbers(trimmed, &envelope); err != nil {
		return fmt.Errorf("разбор страницы записей: %w", err)
	}
	p.Results = nonNil(envelope.Results)
	if envelope.Count != nil {
		p.Count = *envelope.Count
	} else {
		p.Count = len(p.Results)
	}
	return nil
}

// decodeNumbers сохраняет числа как json.Number, чтобы id не превращались в 1e+06.
func decodeNumbers(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func nonNil(list []entities.Record) []entities.Record {
	if list == nil {
		return []entities.Record{}
	}
	return list
}

// DecodeRecord разбирает одиночную запись с сохранением чисел.
func DecodeRecord(raw []byte) (entities.Record, error) {
	var rec entities.Record
	if err := decodeNumbers(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UploadExtras - дополнительные поля формы загрузки Excel на бэкенд.
type UploadExtras struct {
	OriginalName string
	BatchTag     string
}
