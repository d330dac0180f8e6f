// Package testing switches binaries into test mode when blank imported from a
// test, so their main functions return before touching Postgres, Redis or the
// network.
package testing

import (
	"os"
	"sync"

	"github.com/odyssey-erp/order-review/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("STORE_DRIVER") == "" {
			_ = os.Setenv("STORE_DRIVER", "memory")
		}
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}
