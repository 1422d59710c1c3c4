package ingest

import "time"

// NextRetryDelay computes the exponential backoff delay for a record that
// has failed retryCount times: baseDelay doubled per attempt, uncapped.
// retryCount values below one yield the base delay.
func NextRetryDelay(baseDelay time.Duration, retryCount int) time.Duration {
	if retryCount < 1 {
		return baseDelay
	}
	delay := baseDelay
	for i := 1; i < retryCount; i++ {
		delay *= 2
	}
	return delay
}
