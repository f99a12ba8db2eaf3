package service

import (
	"context"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/queue"
)

// QueueNotifier implements Notifier by publishing events to the message
// broker.  Publish errors are logged and swallowed: notification delivery
// is best-effort and never bubbles into the booking transaction's result.
type QueueNotifier struct{}

// BookingSubmitted notifies the requester.  For a privileged submission
// the booking is already approved and the approval wording is used.
func (QueueNotifier) BookingSubmitted(ctx context.Context, b model.Booking) {
	kind := queue.KindSubmitted
	if b.Status == model.StatusApproved {
		kind = queue.KindApproved
	}
	logSideEffectErr("submitted", queue.PublishNotify(ctx, queue.NotifyEvent{
		Kind:      kind,
		BookingID: b.ID,
		Recipient: b.Email,
		Room:      b.Room,
		StartMS:   b.Interval.StartMS,
		EndMS:     b.Interval.EndMS,
		Requester: b.Email,
		Reason:    b.Reason,
	}))
}

// BookingBumped notifies a requester whose booking was displaced by a
// higher-priority one.
func (QueueNotifier) BookingBumped(ctx context.Context, b model.Booking) {
	logSideEffectErr("bumped", queue.PublishNotify(ctx, queue.NotifyEvent{
		Kind:      queue.KindBumped,
		BookingID: b.ID,
		Recipient: b.Email,
		Room:      b.Room,
		StartMS:   b.Interval.StartMS,
		EndMS:     b.Interval.EndMS,
		Requester: b.Email,
		Detail:    BumpDetail,
	}))
}
