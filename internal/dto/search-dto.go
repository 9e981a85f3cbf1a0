package dto

import "operator-console/internal/entities"

// SearchQueryDTO - запрос поиска по рабочему списку.
type SearchQueryDTO struct {
	Query    string   `json:"q"`
	Fields   []string `json:"by" validate:"omitempty,dive,search_field"`
	Page     int      `json:"page"`
	PageSize int      `json:"ps"`
	Ordering string   `json:"ord"`
}

type SearchResultDTO struct {
	Records []entities.Record `json:"records"`
	Total   int               `json:"total"`
	// Superseded - пока шёл этот поиск, сессия начала более новый; ответ нужно отбросить.
	Superseded bool `json:"superseded,omitempty"`
	// Fallback - результат собран из suspends и fixeds без /search-all/.
	Fallback bool `json:"fallback,omitempty"`
}

// SearchStateDTO - состояние поиска, которое восстанавливается из URL или сохранённого.
type SearchStateDTO struct {
	Query    string   `json:"q"`
	Page     int      `json:"page"`
	PageSize int      `json:"ps"`
	Ordering string   `json:"ord"`
	Fields   []string `json:"by"`
}

type StaleDTO struct {
	Stale bool `json:"stale"`
}
