// Package notify publishes user notifications and streams them to
// connected websocket clients.
package notify

import (
	"context"

	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
)

// Notifier publishes best-effort notification events. Failures are logged
// and never fail the calling request. A nil publisher disables publishing.
type Notifier struct {
	pub pubsub.Publisher
}

func NewNotifier(pub pubsub.Publisher) *Notifier {
	return &Notifier{pub: pub}
}

func (n *Notifier) Followed(ctx context.Context, targetID, followerID, followerName string) {
	n.publish(ctx, pubsub.EventFollowed, targetID, followerID, pubsub.FollowedPayload{
		FollowerID:   followerID,
		FollowerName: followerName,
	})
}

func (n *Notifier) PostLiked(ctx context.Context, ownerID, postID, userID string) {
	n.publish(ctx, pubsub.EventPostLiked, ownerID, userID, pubsub.PostLikedPayload{
		PostID: postID,
		UserID: userID,
	})
}

func (n *Notifier) Commented(ctx context.Context, ownerID, postID, userID, comment string, created bool) {
	n.publish(ctx, pubsub.EventCommented, ownerID, userID, pubsub.CommentedPayload{
		PostID:  postID,
		UserID:  userID,
		Comment: comment,
		Created: created,
	})
}

// publish skips events users cause on their own content.
func (n *Notifier) publish(ctx context.Context, eventType, recipientID, actorID string, payload interface{}) {
	if n == nil || n.pub == nil || recipientID == "" || recipientID == actorID {
		return
	}
	l := log.Ctx(ctx)

	event, err := pubsub.NewEvent(eventType, recipientID, actorID, payload)
	if err != nil {
		l.Warn().Err(err).Str("type", eventType).Msg("failed to build notification")
		return
	}
	if err := n.pub.Publish(ctx, pubsub.UserChannel(recipientID), event); err != nil {
		l.Warn().Err(err).Str("type", eventType).Str(log.FieldTargetID, recipientID).Msg("failed to publish notification")
	}
}
