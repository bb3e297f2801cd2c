package provider

import (
	"context"
	"fmt"
)

// Result is one successful travel time answer from a provider.
type Result struct {
	DurationSec int32
	DistanceM   int32
	Rerouted    bool
	Raw         []byte // raw provider payload, kept until retention scrubs it
}

// Failure carries the provider error code recorded on failed shots.
type Failure struct {
	Code string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("provider failure %s: %v", f.Code, f.Err)
	}
	return fmt.Sprintf("provider failure %s", f.Code)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Failure codes
const (
	CodeTimeout      = "TIMEOUT"
	CodeNetworkError = "NETWORK_ERROR"
	CodeBadResponse  = "BAD_RESPONSE"
	CodeUnknown      = "UNKNOWN_ERROR"
)

// Fetcher is the abstract travel time capability. Implementations must
// honor ctx cancellation; the caller owns the timeout.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, origin, destination string) (Result, error)
}
