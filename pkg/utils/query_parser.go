package utils

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// QueryParams - параметры списков локального состояния (импорт, журнал).
type QueryParams struct {
	Search    string
	Columns   []string
	SortBy    string
	SortOrder string
	Limit     uint64
	Offset    uint64
	Page      uint64
}

func ParseQuery(query url.Values) QueryParams {
	params := QueryParams{
		Limit:     DefaultLimit,
		Page:      1,
		SortOrder: "desc",
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.ParseUint(limitStr, 10, 64); err == nil && l > 0 {
			params.Limit = min(l, MaxLimit)
		}
	}
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.ParseUint(pageStr, 10, 64); err == nil && p > 0 {
			params.Page = p
		}
	}
	params.Offset = (params.Page - 1) * params.Limit

	params.Search = strings.TrimSpace(query.Get("search"))

	// columns=a,b или columns=a&columns=b
	for _, raw := range query["columns"] {
		for _, col := range strings.Split(raw, ",") {
			if col = strings.TrimSpace(col); col != "" {
				params.Columns = append(params.Columns, col)
			}
		}
	}

	if sort := query.Get("sort"); sort != "" {
		if strings.HasPrefix(sort, "-") {
			params.SortOrder = "desc"
			params.SortBy = sort[1:]
		} else {
			params.SortOrder = "asc"
			params.SortBy = sort
		}
	}
	return params
}
