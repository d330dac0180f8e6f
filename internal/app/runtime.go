package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode accepts any strconv.ParseBool truthy value.
func detectTestMode() {
	enabled, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(enabled)
}

// InTestMode reports whether binaries should return before opening pools,
// queues or listeners.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
