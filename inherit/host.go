package inherit

import (
	"context"
	"time"
)

// Call carries what the host knows about the current invocation: who is
// calling and how much value is attached to the call.
type Call struct {
	Sender Address
	Value  uint64
}

// Clock supplies the current time. Plans store Unix seconds.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// UnixNow reads c in Unix seconds, the unit plans are stored in. Times
// before the epoch read as 0.
func UnixNow(c Clock) uint64 {
	t := c.Now().Unix()
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Transferer moves value out of custody. Transfer must report the outcome
// synchronously; a non-nil error means no value left custody. An
// implementation may call back into the Registry before it returns.
type Transferer interface {
	Transfer(ctx context.Context, to Address, amount uint64) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx context.Context, to Address, amount uint64) error

// Transfer calls f.
func (f TransferFunc) Transfer(ctx context.Context, to Address, amount uint64) error {
	return f(ctx, to, amount)
}
