// Package shutdown coordinates graceful teardown. Long-lived components
// register hooks (close the plan store, drain SSE clients); a termination
// signal fires them all with a bounded grace period. A global flag lets
// request paths refuse new work once teardown has started.
package shutdown

import "sync"

var (
	isShutdown bool
	mu         sync.RWMutex
)

// CheckShutdown reports whether teardown has started.
func CheckShutdown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return isShutdown
}

func setShutdown() {
	mu.Lock()
	isShutdown = true
	mu.Unlock()
}
