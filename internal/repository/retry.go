package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const readRetryAttempts = 3

// withReadRetry re-runs a read that failed for transient reasons. Not-found
// is a result, not a failure, so it returns immediately.
func withReadRetry(fn func() error) error {
	var err error
	delay := 500 * time.Millisecond
	for attempt := 0; attempt < readRetryAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if attempt < readRetryAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
