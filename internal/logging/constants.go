package logging

// Standardized field names for structured logging.
const (
	FieldFile      = "file_path"
	FieldDirectory = "directory"
	FieldRuleSet   = "rule_set"
	FieldParser    = "parser"
	FieldRunID     = "run_id"
	FieldCategory  = "category"
	FieldKeyword   = "keyword"
	FieldReason    = "reason"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
	FieldComponent = "component"
	FieldFormat    = "format"
)
