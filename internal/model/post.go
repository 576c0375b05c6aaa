package model

import "time"

// Post is the aggregate root for blog content. A post owns its comments:
// they are created, edited, and removed only through post operations, and
// deleting the post deletes them all in the same transaction.
//
// AuthorID never changes after creation. AuthorName is a denormalized
// snapshot of the author's username at creation time — it is NOT kept in
// sync if the user later renames themselves. That is deliberate: the byline
// shows who wrote the post at the time, and it spares every read from a
// join against the users table.
//
// IsActive is the lifecycle flag: true = published, false = archived.
// Archiving hides a post from the public listing without destroying it;
// hard deletion is a separate, admin-only operation.
type Post struct {
	ID         string    `json:"id"         db:"id"`
	Title      string    `json:"title"      db:"title"`
	Content    string    `json:"content"    db:"content"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	IsActive   bool      `json:"isActive"   db:"is_active"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// Comment is a sub-entity of Post. Its ID is unique on its own (xid), but a
// comment is only ever addressed as (postID, commentID) — it has no life
// outside its parent post.
type Comment struct {
	ID         string    `json:"id"         db:"id"`
	PostID     string    `json:"postId"     db:"post_id"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	Body       string    `json:"body"       db:"body"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}
