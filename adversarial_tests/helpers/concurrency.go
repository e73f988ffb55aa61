package helpers

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// GoroutineSnapshot captures the number of goroutines at a point in time
type GoroutineSnapshot struct {
	Count     int
	Timestamp time.Time
}

// TakeGoroutineSnapshot captures current goroutine count
func TakeGoroutineSnapshot() *GoroutineSnapshot {
	return &GoroutineSnapshot{
		Count:     runtime.NumGoroutine(),
		Timestamp: time.Now(),
	}
}

// WaitForGoroutineCleanup waits until at most before.Count+tolerance
// goroutines are running, or maxWait has passed
func WaitForGoroutineCleanup(before *GoroutineSnapshot, maxWait time.Duration, tolerance int) error {
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		if runtime.NumGoroutine()-before.Count <= tolerance {
			return nil
		}
		runtime.GC()
		time.Sleep(20 * time.Millisecond)
	}

	final := runtime.NumGoroutine()
	return fmt.Errorf("goroutine leak detected: started with %d, ended with %d (tolerance %d)",
		before.Count, final, tolerance)
}

// CoordinatedStart runs opFunc from numOps goroutines released at the same
// moment, and returns the errors they reported.
func CoordinatedStart(numOps int, opFunc func(id int) error) []error {
	start := make(chan struct{})
	errs := make(chan error, numOps)
	var ready, done sync.WaitGroup

	ready.Add(numOps)
	done.Add(numOps)
	for i := 0; i < numOps; i++ {
		go func(id int) {
			defer done.Done()
			ready.Done()
			<-start
			if err := opFunc(id); err != nil {
				errs <- err
			}
		}(i)
	}

	ready.Wait()
	close(start)
	done.Wait()
	close(errs)

	var errList []error
	for err := range errs {
		errList = append(errList, err)
	}
	return errList
}
