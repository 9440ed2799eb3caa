package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidVersion       ErrorCode = 104
	ErrCodeInvalidColumnMapping ErrorCode = 105
	ErrCodeInvalidInterval      ErrorCode = 106

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeMalformedBar          ErrorCode = 203

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeVersionMismatch      ErrorCode = 404

	// Trading errors (500-599)
	ErrCodeOrderFailed      ErrorCode = 500
	ErrCodeNoHoldings       ErrorCode = 501
	ErrCodeOrderNotFound    ErrorCode = 502
	ErrCodeInsufficientCash ErrorCode = 503

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoDataPaths  ErrorCode = 606
	ErrCodeBacktestNoResultsDir ErrorCode = 607
	ErrCodeBacktestNoDatasource ErrorCode = 608

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed  ErrorCode = 700
	ErrCodeMarketDataStreamClosed ErrorCode = 701
	ErrCodeMarketDataParseFailed  ErrorCode = 702
	ErrCodeInvalidProvider        ErrorCode = 704
)
