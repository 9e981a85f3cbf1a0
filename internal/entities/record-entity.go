// Файл: internal/entities/record-entity.go
package entities

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Origin - коллекция бэкенда, из которой пришла запись.
// Бэкенд его не хранит, проставляем сами после выборки.
type Origin string

const (
	OriginActives  Origin = "actives"
	OriginSuspends Origin = "suspends"
	OriginFixeds   Origin = "fixeds"
)

// Origins - порядок обхода коллекций по умолчанию.
var Origins = []Origin{OriginSuspends, OriginFixeds, OriginActives}

func (o Origin) Valid() bool {
	switch o {
	case OriginActives, OriginSuspends, OriginFixeds:
		return true
	}
	return false
}

// ParseOrigin не различает регистр; неизвестное значение даёт "".
func ParseOrigin(s string) Origin {
	o := Origin(strings.ToLower(strings.TrimSpace(s)))
	if o.Valid() {
		return o
	}
	return ""
}

// CardMode - можно ли менять диспозицию на карточке.
type CardMode string

const (
	ModeEdit CardMode = "edit"
	ModeView CardMode = "view"
)

// Record - запись абонента в каноническом виде (ключи в нижнем регистре, как в API).
type Record map[string]any

const (
	FieldID            = "id"
	FieldSource        = "source"
	FieldMSISDN        = "msisdn"
	FieldPhone         = "phone"
	FieldAccount       = "account"
	FieldClient        = "client"
	FieldBranches      = "branches"
	FieldStatus        = "status"
	FieldStatusCall    = "status_call"
	FieldCallResult    = "call_result"
	FieldAbonentAnswer = "abonent_answer"
	FieldNote          = "note"
	FieldCalledBy      = "called_by"
	FieldCalledAt      = "called_at"
	FieldFixedByLabel  = "fixed_by_label"
	FieldFixedAt       = "fixed_at"
)

// ID возвращает строковое представление id (число или строка).
func (r Record) ID() string {
	return r.String(FieldID)
}

// String - строковое представление значения поля; отсутствующее поле даёт "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Origin - тег коллекции, проставленный при слиянии выборок.
func (r Record) Origin() Origin {
	return ParseOrigin(r.String(FieldSource))
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys - имена полей записи в стабильном порядке (id первым, остальные по алфавиту).
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	if _, ok := r[FieldID]; ok {
		keys = append(keys, FieldID)
	}
	rest := make([]string, 0, len(r))
	for k := range r {
		if k != FieldID {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}
