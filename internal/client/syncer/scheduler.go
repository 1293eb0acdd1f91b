package syncer

import (
	"sync"
	"time"
)

// Cancel stops a scheduled job. It is safe to call more than once.
type Cancel func()

// Scheduler runs fn every period until cancelled.
type Scheduler interface {
	Every(period time.Duration, fn func()) Cancel
}

// TickerScheduler backs each job with its own goroutine and time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(period time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(period)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
