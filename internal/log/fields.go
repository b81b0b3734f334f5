package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldInvestment = "investment_id"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldDate       = "investment_date"
	FieldEventType  = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentSession   = "session"
	ComponentData      = "data"
	ComponentState     = "localstate"
	ComponentEvents    = "events"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentService   = "service"
	ComponentTemplate  = "template"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpList     = "list"
	OpInsert   = "insert"
	OpDelete   = "delete"
	OpSignIn   = "sign_in"
	OpSignOut  = "sign_out"
	OpRefresh  = "refresh"
	OpRestore  = "restore"
	OpPersist  = "persist"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
