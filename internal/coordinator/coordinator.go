package coordinator

import "context"

// Coordinator is the worker side of the master exchange: block until the
// global snapshot of a round is available, and publish this worker's result
// for master aggregation. Payloads are opaque bytes; the payload package
// owns their layout.
type Coordinator interface {
	WaitSnapshot(ctx context.Context, round int) ([]byte, error)
	PublishResult(round, workerID int, data []byte) error
	Close()
}
