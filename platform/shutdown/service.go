package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
)

const gracePeriod = 15 * time.Second

// HookFunc is one teardown step. It receives the grace period and should
// return within it.
type HookFunc func(grace time.Duration) error

type hookSet struct {
	hooks []HookFunc
	lock  sync.Mutex
}

var registered hookSet

// RegisterHook adds a teardown step. Hooks run concurrently on shutdown.
func RegisterHook(fn HookFunc) {
	registered.lock.Lock()
	defer registered.lock.Unlock()
	registered.hooks = append(registered.hooks, fn)
}

// InitShutdownService watches for termination signals. On SIGINT or
// SIGTERM it sets the shutdown flag, fires every registered hook, waits
// up to the grace period, then closes done so main can exit.
func InitShutdownService(done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)

		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		setShutdown()

		registered.lock.Lock()
		hooks := registered.hooks
		registered.lock.Unlock()

		var wg sync.WaitGroup
		for i, hook := range hooks {
			wg.Add(1)
			go func(n int, fn HookFunc) {
				defer wg.Done()
				if err := fn(gracePeriod); err != nil {
					logger.LogErr(err, "shutdown hook failed", "hook", n)
				}
			}(i, hook)
		}

		hooksDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(hooksDone)
		}()

		select {
		case <-hooksDone:
			logger.Info("All shutdown hooks completed")
		case <-time.After(gracePeriod):
			logger.Info("Shutdown hooks timed out", "grace", gracePeriod.String())
		}
	}()
}
