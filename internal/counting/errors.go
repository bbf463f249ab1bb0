package counting

import "errors"

var (
	// ErrCountingClosed is returned when the result-time gate has shut for
	// the day.
	ErrCountingClosed = errors.New("counting is closed for today")

	// ErrCountingPaused is returned when the user has paused their own
	// counter.
	ErrCountingPaused = errors.New("counting is paused")
)
