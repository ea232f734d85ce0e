package enricher

import (
	"context"
	"time"
)

// DefaultWindowSize bounds the concurrent profile requests per window.
const DefaultWindowSize = 50

// Partition splits n records into consecutive windows of at most size
// indices. Every index in [0, n) appears exactly once, in order.
func Partition(n, size int) []Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if n <= 0 {
		return nil
	}
	windows := make([]Window, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}
		windows = append(windows, Window{Number: len(windows), Indices: indices})
	}
	return windows
}

type timerPauser struct{}

// NewTimerPauser returns a Pauser that sleeps on a timer and returns early
// when the context is done.
func NewTimerPauser() Pauser {
	return timerPauser{}
}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
