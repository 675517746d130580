package server

import (
	"fmt"
	"log"
)

// bestEffort runs fn on its own goroutine. Errors and panics are logged as
// warnings and otherwise swallowed; the simulation never waits on, or fails
// because of, these calls. done is a test seam fired after fn settles.
func bestEffort(logger *log.Logger, name string, fn func() error, done func(name string, err error)) {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
			if err != nil {
				warnf(logger, "%s failed: %v", name, err)
			}
			if done != nil {
				done(name, err)
			}
		}()
		err = fn()
	}()
}
