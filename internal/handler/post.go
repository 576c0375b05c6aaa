package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/service"
)

// PostHandler exposes the post aggregate: CRUD, lifecycle, search, and the
// comment sub-resource.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type createPostRequest struct {
	Title   string `json:"title"   validate:"required"`
	Content string `json:"content" validate:"required"`
}

// HandleCreate creates a post owned by the caller.
//
// HTTP: POST /posts (authenticated)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "auth_required", Message: "valid authentication required",
		})
		return
	}

	var req createPostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), claims, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"post":    post,
	})
}

// HandleListAll returns every post. Whether this route is public or
// admin-only is a deployment decision — see the router wiring.
//
// HTTP: GET /posts/all
func (h *PostHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleListActive returns only active (non-archived) posts.
//
// HTTP: GET /posts/active (public)
func (h *PostHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGetByID returns a single post with its comments.
//
// HTTP: GET /posts/{id} (public)
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type searchByTitleRequest struct {
	Title string `json:"title" validate:"required"`
}

// HandleSearchByTitle finds posts by a case-insensitive title substring.
// No matches is a 200 with an empty array.
//
// HTTP: POST /posts/search-by-title (public)
func (h *PostHandler) HandleSearchByTitle(w http.ResponseWriter, r *http.Request) {
	var req searchByTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	posts, err := h.posts.SearchByTitle(r.Context(), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type searchByContentRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleSearchByContent finds posts by a case-insensitive content
// substring. No matches is a 404 (unlike title search — see the service).
//
// HTTP: POST /posts/search-by-content (public)
func (h *PostHandler) HandleSearchByContent(w http.ResponseWriter, r *http.Request) {
	var req searchByContentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	posts, err := h.posts.SearchByContent(r.Context(), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type updatePostRequest struct {
	Title   string `json:"title"   validate:"required"`
	Content string `json:"content" validate:"required"`
}

// HandleUpdate overwrites a post's title and content.
//
// HTTP: PATCH /posts/{id}/update (authenticated + admin)
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), r.PathValue("id"), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// HandleActivate publishes a post. Activating an already-active post is a
// success with a distinct message, not an error.
//
// HTTP: PATCH /posts/{id}/activate (authenticated + admin)
func (h *PostHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	post, changed, err := h.posts.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Post activated successfully"
	if !changed {
		message = "Post already active"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"post":    post,
	})
}

// HandleArchive hides a post from the active listing. Idempotent like
// HandleActivate.
//
// HTTP: PATCH /posts/{id}/archive (authenticated + admin)
func (h *PostHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	post, changed, err := h.posts.Archive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Post archived successfully"
	if !changed {
		message = "Post already archived"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"post":    post,
	})
}

// HandleDelete removes a post and all of its comments.
//
// HTTP: DELETE /posts/{id}/delete (authenticated + admin)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post deleted successfully"})
}

type commentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// HandleAddComment appends a comment authored by the caller.
//
// HTTP: POST /posts/{id}/comments (authenticated)
func (h *PostHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "auth_required", Message: "valid authentication required",
		})
		return
	}

	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.posts.AddComment(r.Context(), r.PathValue("id"), claims, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// HandleEditComment replaces a comment's text. The author-or-admin policy
// is enforced in the service, which knows who wrote the comment.
//
// HTTP: PATCH /posts/{id}/comments/{commentId} (authenticated)
func (h *PostHandler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "auth_required", Message: "valid authentication required",
		})
		return
	}

	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.posts.EditComment(r.Context(), r.PathValue("id"), r.PathValue("commentId"), claims, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// HandleDeleteComment removes a comment.
//
// HTTP: DELETE /posts/{id}/comments/{commentId} (authenticated + admin)
func (h *PostHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeleteComment(r.Context(), r.PathValue("id"), r.PathValue("commentId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comment deleted successfully"})
}
