package dto

type BackupInfoDTO struct {
	TotalRecords   int     `json:"total_records"`
	SampleSize     int     `json:"sample_size"`
	DataTooLarge   bool    `json:"data_too_large"`
	OriginalSizeMB float64 `json:"original_size_mb"`
}

type ImportResultDTO struct {
	BatchID  string         `json:"batch_id"`
	Rows     int            `json:"rows"`
	Columns  []string       `json:"columns"`
	Backup   *BackupInfoDTO `json:"backup,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Upload   map[string]any `json:"upload,omitempty"`

	// ArchivePath - куда сохранён исходный файл, относительно каталога архива.
	ArchivePath string `json:"archive_path,omitempty"`
}

// ImportOptionsDTO - поля формы импорта кроме самого файла.
type ImportOptionsDTO struct {
	Forward  bool   `form:"forward"`
	BatchTag string `form:"batch_tag" validate:"max=100"`
}
