package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postColumns is the SELECT list shared by every post query, so Scan calls
// stay in one agreed order.
const postColumns = `id, title, content, author_id, author_name, is_active, created_at, updated_at`

// Create inserts a new post. ID and timestamps are generated here and
// written back through the pointer; a new post is always active.
//
// ID GENERATION WITH xid:
// xid produces 20-char, URL-safe IDs that sort by creation time. The same
// scheme is used for comment IDs, which gives comments a stable
// insertion-order sort for free (ORDER BY id).
func (db *DB) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.IsActive = true
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, author_name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.AuthorName,
		post.IsActive,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetByID retrieves a post together with all of its comments.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`,
		id,
	).Scan(
		&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.AuthorName, &post.IsActive, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	posts := []model.Post{post}
	if err := db.attachComments(ctx, posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

// List returns posts in creation order, optionally filtered to active ones.
func (db *DB) List(ctx context.Context, activeOnly bool) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at ASC`

	return db.queryPosts(ctx, query)
}

// SearchByTitle returns posts whose title contains the substring,
// case-insensitively. No matches → empty slice, not an error.
//
// instr(lower(...), lower(?)) gives plain substring semantics. LIKE would
// need escaping for % and _ in the user's input; instr has no
// metacharacters at all.
func (db *DB) SearchByTitle(ctx context.Context, substring string) ([]model.Post, error) {
	return db.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE instr(lower(title), lower(?)) > 0
		 ORDER BY created_at ASC`,
		substring,
	)
}

// SearchByContent returns posts whose content contains the substring,
// case-insensitively. Like SearchByTitle this returns an empty slice on no
// match — the "no matches is a not-found condition" rule for content search
// lives in the service layer, where the behaviour is documented.
func (db *DB) SearchByContent(ctx context.Context, substring string) ([]model.Post, error) {
	return db.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE instr(lower(content), lower(?)) > 0
		 ORDER BY created_at ASC`,
		substring,
	)
}

// Update overwrites title and content. AuthorID, author_name, and
// created_at never change. Returns NotFound if the post doesn't exist.
func (db *DB) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		post.Title,
		post.Content,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// SetActive flips the lifecycle flag. Returns NotFound if the post doesn't
// exist. The idempotency decision ("already active is a no-op, not an
// error") belongs to the service — this method writes unconditionally.
func (db *DB) SetActive(ctx context.Context, id string, active bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET is_active = ?, updated_at = ? WHERE id = ?`,
		active,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting post %s active=%t: %w", id, active, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

// Delete removes a post. Its comments go with it in the same statement via
// the ON DELETE CASCADE constraint — one atomic aggregate removal, no
// orphan rows possible.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

// AddComment appends a comment to a post's sequence. The existence check
// and the insert run in one transaction so a concurrent post deletion
// cannot leave an orphan comment behind.
func (db *DB) AddComment(ctx context.Context, postID string, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.PostID = postID
	comment.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, author_name, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Body,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding comment to post %s: %w", postID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing comment insert: %w", err)
	}
	return nil
}

// UpdateComment replaces a comment's body, addressed by (postID, commentID).
// Returns NotFound if the post or the comment is absent.
func (db *DB) UpdateComment(ctx context.Context, postID, commentID, body string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE comments SET body = ? WHERE id = ? AND post_id = ?`,
		body, commentID, postID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", commentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("comment", commentID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing comment update: %w", err)
	}
	return nil
}

// DeleteComment removes a comment from a post's sequence.
// Returns NotFound if the post or the comment is absent.
func (db *DB) DeleteComment(ctx context.Context, postID, commentID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND post_id = ?`,
		commentID, postID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", commentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("comment", commentID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing comment delete: %w", err)
	}
	return nil
}

// postExists verifies the parent post inside the caller's transaction.
func postExists(ctx context.Context, tx *sql.Tx, postID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("post", postID)
		}
		return fmt.Errorf("sqlite: checking post %s: %w", postID, err)
	}
	return nil
}

// queryPosts runs a multi-row post query and attaches comments to every
// result in a single follow-up query (two round-trips total, never N+1).
func (db *DB) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.AuthorID,
			&p.AuthorName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	if err := db.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachComments loads the comments for every post in the slice with one
// query and distributes them. Comments come back ordered by id — xids sort
// by creation time, so this is insertion order.
func (db *DB) attachComments(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		placeholders[i] = "?"
		args[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Comments = []model.Comment{}
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, author_id, author_name, body, created_at
		 FROM comments
		 WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt,
		); err != nil {
			return fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return nil
}
