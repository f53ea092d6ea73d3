package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID = "user_id"

	// Domain
	FieldTargetID  = "target_id"
	FieldPostID    = "post_id"
	FieldCommentID = "comment_id"
	FieldEmail     = "email"

	// Service
	FieldService = "service"

	// Database
	FieldSQL  = "sql"
	FieldRows = "rows"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
