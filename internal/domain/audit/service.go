package audit

import "context"

// Sink accepts audit entries after the workflow that produced them has
// committed. Record never fails the caller.
type Sink interface {
	Record(ctx context.Context, e Entry)
}
