package values

type contextKey string

const ContextTracingKey contextKey = "tracing"

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

// Response statuses
const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	SystemErr      = "system-error"
	BadRequestBody = "bad-request"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not-allowed"
	Conflict       = "conflict"
	NotFound       = "not-found"
	Failed         = "failed"
	Partial        = "partial"
	Upstream       = "upstream-error"
)
