package dto

import (
	"github.com/aarondl/null/v8"

	"operator-console/internal/entities"
)

// OptionsDTO - подсказки для полей диспозиции.
type OptionsDTO struct {
	CallStatuses   []string `json:"status_call"`
	CallResults    []string `json:"call_result"`
	AbonentAnswers []string `json:"abonent_answer"`
}

type CardDTO struct {
	Record  entities.Record   `json:"record"`
	Origin  entities.Origin   `json:"origin"`
	Mode    entities.CardMode `json:"mode"`
	Options OptionsDTO        `json:"options"`
}

// CardQueryDTO - подсказка коллекции ?src= для поиска карточки.
type CardQueryDTO struct {
	Source string `json:"src" validate:"omitempty,origin"`
}

func (q CardQueryDTO) Origin() entities.Origin {
	return entities.ParseOrigin(q.Source)
}

// DispositionDTO - тело сохранения карточки.
type DispositionDTO struct {
	CallStatus    string      `json:"status_call" validate:"required,call_status"`
	CallResult    string      `json:"call_result" validate:"required,call_result"`
	AbonentAnswer string      `json:"abonent_answer" validate:"omitempty,abonent_answer"`
	Note          null.String `json:"note" validate:"omitempty,note_length"`
}

func (d DispositionDTO) ToEntity() entities.Disposition {
	return entities.Disposition{
		CallStatus:    d.CallStatus,
		CallResult:    d.CallResult,
		AbonentAnswer: d.AbonentAnswer,
		Note:          d.Note.String,
	}
}

type SaveResultDTO struct {
	Record  entities.Record `json:"record,omitempty"`
	Skipped bool            `json:"skipped"`
}

// StatusChangeDTO - смена статуса звонка в форме до сохранения.
type StatusChangeDTO struct {
	CallStatus    string `json:"status_call" validate:"required,call_status"`
	CallResult    string `json:"call_result"`
	AbonentAnswer string `json:"abonent_answer"`
}

// DispositionPatchDTO - поля, которые форма должна подставить.
type DispositionPatchDTO struct {
	CallResult    *string `json:"call_result,omitempty"`
	AbonentAnswer *string `json:"abonent_answer,omitempty"`
}
