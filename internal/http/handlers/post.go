package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type PostHandler struct {
	posts services.PostService
}

func NewPostHandler(posts services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// GET /api/posts
func (h *PostHandler) Feed(c *gin.Context) {
	feed, err := h.posts.Feed(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(feed))
}

// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		AuthorID string `json:"author_id"`
		Content  string `json:"content"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.AuthorID) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), me, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, post)
}

// POST /api/posts/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		PostID string `json:"post_id"`
		UserID string `json:"user_id"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	postID, err := uuid.Parse(strings.TrimSpace(req.PostID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_post_id", err)
		return
	}
	state, err := h.posts.ToggleLike(c.Request.Context(), me, postID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "isLiked": state.IsLiked, "resonance": state.Resonance})
}

// GET /api/posts/:id/comments
func (h *PostHandler) Comments(c *gin.Context) {
	postID, ok := uuidParam(c, "id", "invalid_post_id")
	if !ok {
		return
	}
	tree, err := h.posts.Comments(c.Request.Context(), postID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(tree))
}

// POST /api/posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	postID, ok := uuidParam(c, "id", "invalid_post_id")
	if !ok {
		return
	}
	var req struct {
		Content  string     `json:"content"`
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.posts.AddComment(c.Request.Context(), me, postID, req.Content, req.ParentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, comment)
}
