package config

type UploadConfig struct {
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxSizeMB         int64
}

var UploadContexts = map[string]UploadConfig{
	// Выгрузки абонентов для админ-импорта. xlsx/xlsm - это zip-контейнер.
	"spreadsheet": {
		AllowedExtensions: []string{".xlsx", ".xlsm"},
		AllowedMimeTypes:  []string{"application/zip", "application/octet-stream"},
		MaxSizeMB:         50,
	},
}
