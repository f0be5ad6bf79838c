package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldExpenseID  = "expense_id"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldOwnerID    = "ownerid"
	FieldStatusCode = "status_code"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentRemote   = "remote"
	ComponentSession  = "session"
	ComponentExpenses = "expenses"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentStats    = "stats"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpSignIn    = "sign_in"
	OpSignUp    = "sign_up"
	OpSignOut   = "sign_out"
	OpUpdate    = "update"
	OpFetch     = "fetch"
	OpCreate    = "create"
	OpDelete    = "delete"
	OpLoad      = "load"
	OpSave      = "save"
	OpClear     = "clear"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpRender    = "render"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
