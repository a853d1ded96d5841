package port

import "context"

// Writer appends records to a durable event stream. Unlike the pub/sub
// broker this feed is for downstream consumers (analytics, audit), not for
// client push; producers treat it as fire-and-forget.
type Writer interface {
	Write(ctx context.Context, key, value []byte) error
	Close() error
}
