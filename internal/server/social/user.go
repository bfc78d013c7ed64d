// Package social implements the in-memory social graph: users, symmetric
// friendships, asymmetric follow links and per-user post histories.
//
// The graph is the sole owner of User and Post entities. Relationships are
// stored as sets of usernames rather than object references, which keeps the
// structure cycle-free and makes it trivial to serialize.
package social

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered member of the network. Friendship is always mirrored:
// a ∈ b.Friends iff b ∈ a.Friends. Followers holds the users subscribed to
// this user's posts.
type User struct {
	Username  string
	Password  string
	Friends   map[string]struct{}
	Followers map[string]struct{}
	Posts     []*Post
}

func newUser(username, password string) *User {
	return &User{
		Username:  username,
		Password:  password,
		Friends:   make(map[string]struct{}),
		Followers: make(map[string]struct{}),
	}
}

// Post is a published item. Immutable after creation; the notification
// backlog references posts, it never copies them.
type Post struct {
	ID        string
	Author    string
	Content   string
	CreatedAt time.Time
}

func newPost(author, content string) *Post {
	return &Post{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
