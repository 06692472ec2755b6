package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/realtime"
)

// Pusher delivers committed events to a profile's live streams.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, event realtime.Event, data any)
}

// pushNotes announces notifications once their transaction has committed.
func pushNotes(ctx context.Context, p Pusher, notes ...*types.Notification) {
	if p == nil {
		return
	}
	for _, n := range notes {
		if n != nil {
			p.Push(ctx, n.UserID, realtime.EventNotification, n)
		}
	}
}
