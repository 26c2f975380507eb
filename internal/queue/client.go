package queue

import "context"

// Client enqueues parse-job messages. Implementations must be safe for
// concurrent use. Delivery is at-least-once, so consumers dedupe on the
// resume's parse status, not on the message itself.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
