// File: client/backoff.go
package client

import "time"

// maxBackoff caps the reconnect delay regardless of attempt count.
const maxBackoff = 30 * time.Second

// backoffDelay returns base * 2^(attempt-1), capped at maxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
