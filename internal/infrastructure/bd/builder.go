package db

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"operator-console/pkg/utils"
)

// ApplyListParams добавляет поиск, сортировку и пагинацию.
// allowedMap переводит имя колонки из запроса в SQL-выражение; неизвестные колонки игнорируются.
// Поиск - подстрока без учёта регистра по выбранным колонкам (или по всем разрешённым).
func ApplyListParams(builder sq.SelectBuilder, params utils.QueryParams, allowedMap map[string]string) sq.SelectBuilder {
	builder = ApplySearch(builder, params, allowedMap)

	if dbCol, ok := allowedMap[params.SortBy]; ok {
		sqlDir := "ASC"
		if strings.ToLower(params.SortOrder) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
	}

	if params.Limit > 0 {
		builder = builder.Limit(params.Limit)
	}
	if params.Offset > 0 {
		builder = builder.Offset(params.Offset)
	}
	return builder
}

// ApplySearch - только условие поиска, для запросов count(*).
func ApplySearch(builder sq.SelectBuilder, params utils.QueryParams, allowedMap map[string]string) sq.SelectBuilder {
	if params.Search == "" {
		return builder
	}

	cols := params.Columns
	if len(cols) == 0 {
		for col := range allowedMap {
			cols = append(cols, col)
		}
	}

	pattern := "%" + escapeLike(params.Search) + "%"
	or := sq.Or{}
	for _, col := range cols {
		if dbCol, ok := allowedMap[col]; ok {
			or = append(or, sq.ILike{dbCol: pattern})
		}
	}
	if len(or) == 0 {
		return builder
	}
	return builder.Where(or)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
