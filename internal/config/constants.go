package config

import "time"

const (
	// DefaultSuitesDir is the directory path for suite definitions.
	DefaultSuitesDir = "suites"
	// DefaultBootPool is the pool name passed to scrub operations.
	DefaultBootPool = "freenas-boot"
	// DefaultBulkCount is the number of resources created by the bulk scenario.
	DefaultBulkCount = 10
	// DefaultCallTimeout bounds a single middleware RPC call.
	DefaultCallTimeout = 30 * time.Second
	// BulkNamePrefix is the name prefix for bulk-created boot environments.
	BulkNamePrefix = "stress"
)
