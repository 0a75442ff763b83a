// Package notifications delivers wall activity to its audience. Rows
// are written by the background fanout job, never inline with the
// request that caused them.
package notifications

import "time"

// Notification tells a user something happened on a post they care
// about.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Kind      string     `json:"kind"`
	ActorID   string     `json:"actorId"`
	PostID    string     `json:"postId"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
