package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError    = "error"
	FieldPath     = "path"
	FieldDuration = "duration"

	// Request fields.
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldRoute     = "route"
	FieldStatus    = "status"
	FieldClientIP  = "client_ip"
	FieldAddr      = "addr"

	// Review fields.
	FieldAttempt         = "attempt"
	FieldAttempts        = "attempts"
	FieldBackend         = "backend"
	FieldModel           = "model"
	FieldKind            = "kind"
	FieldReason          = "reason"
	FieldIssueID         = "issue_id"
	FieldIssues          = "issues"
	FieldEdits           = "edits"
	FieldDuplicates      = "duplicates"
	FieldLintFindings    = "lint_findings"
	FieldCodeRatio       = "code_ratio"
	FieldCodeEditAllowed = "code_edit_allowed"
	FieldDocBytes        = "doc_bytes"

	// Configuration fields.
	FieldConfig = "config"
	FieldSource = "source"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
