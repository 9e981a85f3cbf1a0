package entities

import "time"

// ServicedCall - строка журнала обслуженных звонков.
type ServicedCall struct {
	ID            uint64    `json:"id" db:"id"`
	RecordID      string    `json:"record_id" db:"record_id"`
	Origin        Origin    `json:"origin" db:"origin"`
	MSISDN        string    `json:"msisdn" db:"msisdn"`
	Phone         string    `json:"phone" db:"phone"`
	Client        string    `json:"client" db:"client"`
	Account       string    `json:"account" db:"account"`
	CallStatus    string    `json:"status_call" db:"call_status"`
	CallResult    string    `json:"call_result" db:"call_result"`
	AbonentAnswer string    `json:"abonent_answer" db:"abonent_answer"`
	Note          string    `json:"note" db:"note"`
	Operator      string    `json:"operator" db:"operator"`
	ServicedAt    time.Time `json:"serviced_at" db:"serviced_at"`
}

// ImportedRecord - строка из загруженного администратором файла.
type ImportedRecord struct {
	ID       uint64    `json:"-" db:"id"`
	BatchID  string    `json:"batch_id" db:"batch_id"`
	RowIndex int       `json:"row_index" db:"row_index"`
	Data     Record    `json:"data" db:"data"`
	Imported time.Time `json:"imported_at" db:"imported_at"`
}

// DailyCount - число обслуженных звонков за день (YYYY-MM-DD).
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// CallStats - сводка по журналу обслуженных звонков.
type CallStats struct {
	Today    int            `json:"today"`
	Week     int            `json:"week"`
	Month    int            `json:"month"`
	Daily    []DailyCount   `json:"daily"`
	ByStatus map[string]int `json:"by_status"`
	ByResult map[string]int `json:"by_result"`
	ByAnswer map[string]int `json:"by_answer"`
}
