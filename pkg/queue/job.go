package queue

import "context"

// Job is a unit of background work, registered with the queue by message
// type. The demand rebuild job is the one shipped; the interface leaves
// room for more.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload interface{}) error
}
