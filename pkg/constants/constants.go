package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	TenantIDKey  ContextKey = "tenant_id"
	SegmentIDKey ContextKey = "segment_id"
	RequestIDKey ContextKey = "request_id"
)
