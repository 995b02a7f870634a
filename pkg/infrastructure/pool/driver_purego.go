//go:build !cgo_sqlite

package pool

import (
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

const (
	driverName = "sqlite"
	driverType = "purego"
)

// buildDSN appends modernc.org/sqlite connection parameters to path.
func buildDSN(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, busyTimeout.Milliseconds())
}
