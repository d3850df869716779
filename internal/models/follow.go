package models

import "time"

// Follow is a one-directional "FollowerID follows FolloweeID" edge.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;check:chk_follows_not_self,follower_id <> followee_id" json:"follower"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index:idx_follows_followee" json:"followee"`
	CreatedAt  time.Time `gorm:"not null" json:"created"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowCounts holds follower and following totals for a user.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}
