package domain

import "time"

// Post is a blog entry.
type Post struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostUpdate carries the mutable fields of a post.
type PostUpdate struct {
	Title   string
	Content string
}
