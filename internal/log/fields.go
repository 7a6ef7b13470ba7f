package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldError     = "error"
	FieldOperation = "operation"

	FieldTransactionID = "transaction_id"
	FieldBudgetID      = "budget_id"
	FieldCategory      = "category"
	FieldPeriod        = "period"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldFromCurrency  = "from_currency"
	FieldToCurrency    = "to_currency"
	FieldRate          = "rate"
	FieldRateSource    = "rate_source"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentOracle      = "oracle"
	ComponentExtractor   = "extractor"
	ComponentRates       = "rates"
	ComponentTransaction = "transaction"
	ComponentBudget      = "budget"
	ComponentCategory    = "category"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExtract  = "extract"
	OpResolve  = "resolve"
	OpQuote    = "quote"
	OpSummary  = "summary"
	OpNotify   = "notify"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
