// Package models contains the relationship entities stored by the social graph.
package models

import (
	"time"
)

// RequestState is the observable lifecycle state of a stored friendship request.
// Accepted and cancelled requests are deleted, so they have no state.
type RequestState string

const (
	// RequestStatePending is a request awaiting a decision.
	RequestStatePending RequestState = "pending"
	// RequestStateRejected is a request the recipient rejected. It can still be accepted or cancelled.
	RequestStateRejected RequestState = "rejected"
)

// FriendshipRequest is a pending (or rejected) request from FromUserID to ToUserID.
// At most one request exists per ordered pair.
type FriendshipRequest struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	FromUserID uint       `gorm:"not null;uniqueIndex:idx_friendship_requests_pair;check:chk_friendship_requests_not_self,from_user_id <> to_user_id" json:"from_user"`
	ToUserID   uint       `gorm:"not null;uniqueIndex:idx_friendship_requests_pair;index:idx_friendship_requests_to_user" json:"to_user"`
	Message    string     `gorm:"type:text;not null;default:''" json:"message"`
	CreatedAt  time.Time  `gorm:"not null" json:"created"`
	RejectedAt *time.Time `json:"rejected,omitempty"`
	ViewedAt   *time.Time `json:"viewed,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendshipRequest) TableName() string {
	return "friendship_requests"
}

// State returns pending or rejected.
func (r *FriendshipRequest) State() RequestState {
	if r.RejectedAt != nil {
		return RequestStateRejected
	}
	return RequestStatePending
}

// IsViewed reports whether the recipient has opened the request.
func (r *FriendshipRequest) IsViewed() bool {
	return r.ViewedAt != nil
}

// Involves reports whether userID is the sender or the recipient.
func (r *FriendshipRequest) Involves(userID uint) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}

// Friend is one directed row meaning "FromUserID is a friend of ToUserID".
// Mutual friendships are always stored as two rows, one per direction.
type Friend struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FromUserID uint      `gorm:"not null;uniqueIndex:idx_friends_pair;check:chk_friends_not_self,from_user_id <> to_user_id" json:"from_user"`
	ToUserID   uint      `gorm:"not null;uniqueIndex:idx_friends_pair;index:idx_friends_to_user" json:"to_user"`
	CreatedAt  time.Time `gorm:"not null" json:"created"`
}

// TableName specifies the table name for GORM
func (Friend) TableName() string {
	return "friends"
}
