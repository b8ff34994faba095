package interfaces

import "context"

// INotificationSink is informed of terminal escrow transitions (released,
// refunded, disputed). Delivery failures are logged by the caller and never
// roll back a transition that already committed.

type INotificationSink interface {
	NotifyTransition(ctx context.Context, entityType, entityID, status string) error
}
