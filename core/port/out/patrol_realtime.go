package out

import (
	"context"

	"patrol_server/core/domain"
)

// AlertBroadcaster pushes flagged-item alerts to connected dashboard
// clients. Implementations must not block the flagging pipeline.
type AlertBroadcaster interface {
	Broadcast(ctx context.Context, event *domain.AlertEvent) error
	ConnectedCount() int
}
