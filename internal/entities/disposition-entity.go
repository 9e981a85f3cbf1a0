package entities

import "slices"

// Статусы звонка.
const (
	CallStatusReached    = "Дозвонился"
	CallStatusNotReached = "Не дозвонился"
	CallStatusNotCalled  = "Не звонили"
)

// Значения, подставляемые автоматически.
const (
	NoAnswer             = "Нет ответа"
	DefaultAbonentAnswer = "Абонент активный"
)

var CallStatuses = []string{CallStatusReached, CallStatusNotReached, CallStatusNotCalled}

var CallResults = []string{
	"Ответили на вопрос",
	"Отказ от разговора",
	"Другой владелец номера",
	NoAnswer,
	"Аппарат выключен",
	"Номер не существует",
	"Дубликат номера",
	"Статус Активный",
}

// AbonentAnswers - закрытый список ответов абонента плюс "Нет ответа"
// (подставляется при недозвоне) и "Другой".
var AbonentAnswers = []string{
	NoAnswer,
	"Временно нет потребности в интернете",
	"Финансовые трудности",
	"Забыли внести платеж",
	"Высокая стоимость ТП",
	"Не устраивает качество сети",
	"Плохое обслуживание",
	"Переезд",
	"Смена технологии",
	"Смена провайдера",
	DefaultAbonentAnswer,
	"Оплатит в скором времени",
	"Другой",
}

// Disposition - результат звонка, который фиксирует оператор.
type Disposition struct {
	CallStatus    string `json:"status_call"`
	CallResult    string `json:"call_result"`
	AbonentAnswer string `json:"abonent_answer"`
	Note          string `json:"note"`
}

// Payload - тело запроса на бэкенд (fixation или PATCH fixeds).
func (d Disposition) Payload() map[string]any {
	return map[string]any{
		FieldStatusCall:    d.CallStatus,
		FieldCallResult:    d.CallResult,
		FieldAbonentAnswer: d.AbonentAnswer,
		FieldNote:          d.Note,
	}
}

// DispositionFromRecord читает текущую диспозицию из записи.
func DispositionFromRecord(r Record) Disposition {
	return Disposition{
		CallStatus:    r.String(FieldStatusCall),
		CallResult:    r.String(FieldCallResult),
		AbonentAnswer: r.String(FieldAbonentAnswer),
		Note:          r.String(FieldNote),
	}
}

func IsCallStatus(v string) bool    { return slices.Contains(CallStatuses, v) }
func IsCallResult(v string) bool    { return slices.Contains(CallResults, v) }
func IsAbonentAnswer(v string) bool { return slices.Contains(AbonentAnswers, v) }

// OptionsWith возвращает копию списка подсказок, в начало которой добавлено
// текущее значение, если его там нет.
func OptionsWith(list []string, current string) []string {
	out := make([]string, 0, len(list)+1)
	if current != "" && !slices.Contains(list, current) {
		out = append(out, current)
	}
	return append(out, list...)
}
