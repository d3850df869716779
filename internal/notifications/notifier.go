// Package notifications publishes relationship events to Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"socialgraph/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Relationship event types.
const (
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestAccepted  = "friend_request_accepted"
	EventFriendRequestRejected  = "friend_request_rejected"
	EventFriendRequestCancelled = "friend_request_cancelled"
	EventFriendRemoved          = "friend_removed"
	EventFollowerAdded          = "follower_added"
)

const userChannelPattern = "notifications:user:*"

// UserChannel returns the pub/sub channel for userID.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// Event is the JSON envelope published on user channels.
type Event struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishEvent marshals an Event and publishes it to userID.
func (n *Notifier) PublishEvent(ctx context.Context, userID uint, eventType string, payload map[string]any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	b, err := json.Marshal(Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return n.PublishUser(ctx, userID, string(b))
}

// Notify publishes an event and logs failures instead of returning them.
// Relationship changes are already committed when events go out.
func (n *Notifier) Notify(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	if err := n.PublishEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish event",
			slog.String("event", eventType),
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("PANIC in PatternSubscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
