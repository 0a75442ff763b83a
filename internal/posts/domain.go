// Package posts is the wall itself: posts, comments, and reactions.
// The interesting access rules (authorship, teacher pinning, admin
// moderation) are enforced here and in the route guards; storage is
// plain CRUD over PostgreSQL.
package posts

import "time"

// Post is a wall entry.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment hangs off a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reaction is one user's reaction to a post. One row per user per post;
// changing the kind overwrites.
type Reaction struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reaction kinds the API accepts.
var ReactionKinds = map[string]struct{}{
	"like":  {},
	"heart": {},
	"laugh": {},
	"wow":   {},
	"sad":   {},
}
