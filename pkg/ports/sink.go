package ports

import "context"

// ErrorSink receives failures that occur outside any stage, for example
// while packaging a finished build target into a wire response. The engine
// converts stage-local failures into the failed outcome itself; the sink is
// for everything the outcome can no longer carry.
type ErrorSink interface {
	ReportUnrecoverable(ctx context.Context, err error)
}
