package dto

type ColumnsDTO struct {
	Columns []string `json:"columns"`
}

// SetColumnsDTO - PUT /preferences/columns. Available нужен для пресета "all".
type SetColumnsDTO struct {
	Columns   []string `json:"columns"`
	Available []string `json:"available"`
}
