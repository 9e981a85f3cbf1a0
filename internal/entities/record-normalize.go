package entities

// legacyFields сводит имена полей старых выгрузок (верхний регистр) и
// camelCase-полей диспозиции к каноническим именам API.
var legacyFields = map[string]string{
	"ID":                FieldID,
	"MSISDN":            FieldMSISDN,
	"PHONE":             FieldPhone,
	"ACCOUNT":           FieldAccount,
	"CLIENT":            FieldClient,
	"FULL_NAME":         "full_name",
	"BRANCH":            FieldBranches,
	"BRANCHES":          FieldBranches,
	"DEPARTMENT":        "departments",
	"DEPARTMENTS":       "departments",
	"TECHNOLOGY":        "tech",
	"STATUS":            FieldStatus,
	"RATE_PLAN":         "rate_plan",
	"BALANCE":           "balance",
	"MONTHLY_FEE":       "subscription_fee",
	"STATUS_DATE":       "status_from",
	"DAYS_IN_STATUS":    "days_in_status",
	"AP_WRITE_OFF_DATE": "write_offs_date",
	"callStatus":        FieldStatusCall,
	"callResult":        FieldCallResult,
	"subscriberAnswer":  FieldAbonentAnswer,
}

// Normalize переименовывает известные устаревшие поля в канонические.
// Уже заданное каноническое значение не перезаписывается, устаревший ключ при этом отбрасывается.
// Неизвестные поля проходят как есть.
func Normalize(in Record) Record {
	if in == nil {
		return nil
	}
	out := make(Record, len(in))
	for k, v := range in {
		if _, legacy := legacyFields[k]; !legacy {
			out[k] = v
		}
	}
	for k, v := range in {
		canonical, legacy := legacyFields[k]
		if !legacy {
			continue
		}
		if _, exists := out[canonical]; exists {
			continue
		}
		out[canonical] = v
	}
	return out
}

// NormalizeAll применяет Normalize к каждой записи на месте.
func NormalizeAll(records []Record) []Record {
	for i := range records {
		records[i] = Normalize(records[i])
	}
	return records
}
