package loadgen

import "time"

// Defaults applied by Config when a field is left zero.
const (
	DefaultTopN           = 20
	DefaultRequestTimeout = 30 * time.Second
	DefaultSettleTimeout  = 2 * time.Minute
	DefaultPollInterval   = 250 * time.Millisecond
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	maxSubmitRetries        = 5
	retryBaseDelay          = 50 * time.Millisecond
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	directoryPermission  = 0750
	logFilePermission    = 0600
)
