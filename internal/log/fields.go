package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldChannel     = "channel"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldRestarts    = "restarts"
	FieldBackoff     = "backoff"
	FieldArchiveRef  = "archive_ref"
	FieldBackend     = "backend"
	FieldQueue       = "queue"
	FieldExchange    = "exchange"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentParser  = "parser"
	ComponentIngest  = "ingest"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentConfig  = "config"
)

// Operations defines standard operation names
const (
	OpParse    = "parse"
	OpAppend   = "append"
	OpPoll     = "poll"
	OpRestart  = "restart"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
	OpConsume  = "consume"
	OpPublish  = "publish"
)
