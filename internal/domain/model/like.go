//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Like records that a user liked a post. A user likes a post at most once.
type Like struct {
	PostID    string    `json:"post_id"    db:"post_id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Username  string    `json:"username"   db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LikeSummary is the aggregate view returned by the likes endpoints.
type LikeSummary struct {
	PostID    string  `json:"post_id"`
	Count     int     `json:"count"`
	LikedByMe bool    `json:"liked_by_me"`
	Likes     []*Like `json:"likes,omitempty"`
}
