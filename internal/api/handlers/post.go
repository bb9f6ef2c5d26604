package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/google/uuid"
)

// Base64 inflates the image limit by 4/3; leave room for the other fields.
const maxPostBodyBytes = 8 << 20

type PostHandler struct {
	postService        *service.PostService
	interactionService *service.InteractionService
}

func NewPostHandler(postService *service.PostService, interactionService *service.InteractionService) *PostHandler {
	return &PostHandler{postService: postService, interactionService: interactionService}
}

type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	SubTitle    string   `json:"subTitle" validate:"max=300"`
	Description string   `json:"description" validate:"required"`
	ImageBase64 string   `json:"imageBase64"`
	Sources     []string `json:"sources" validate:"max=20,dive,max=500"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
}

type PostListResponse struct {
	Posts  []*domain.Post `json:"posts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := service.ClampPage(queryInt(r, "limit", service.DefaultPageSize), queryInt(r, "offset", 0))

	posts, err := h.postService.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, "PostHandler.List", err)
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: nonNil(posts), Limit: limit, Offset: offset})
}

func (h *PostHandler) Featured(w http.ResponseWriter, r *http.Request) {
	feed, err := h.postService.Featured(r.Context())
	if err != nil {
		writeError(w, r, "PostHandler.Featured", err)
		return
	}
	feed.Posts = nonNil(feed.Posts)
	writeJSON(w, http.StatusOK, feed)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "PostHandler.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Stats answers GET /posts/stats?ids=<uuid>,<uuid>.
func (h *PostHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var ids []uuid.UUID
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid post ID: "+raw, http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) > service.MaxPageSize {
		http.Error(w, "Too many post IDs", http.StatusBadRequest)
		return
	}

	stats, err := h.interactionService.Stats(r.Context(), ids)
	if err != nil {
		writeError(w, r, "PostHandler.Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostBodyBytes)

	var req CreatePostRequest
	if !decode(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), service.SessionFromContext(r.Context()), service.CreatePostInput{
		Title:       req.Title,
		SubTitle:    req.SubTitle,
		Description: req.Description,
		ImageBase64: req.ImageBase64,
		Sources:     req.Sources,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, "PostHandler.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), service.SessionFromContext(r.Context()), id); err != nil {
		writeError(w, r, "PostHandler.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	sess := service.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	posts, err := h.postService.ListByOwner(r.Context(), sess.UserID())
	if err != nil {
		writeError(w, r, "PostHandler.MyPosts", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return fallback
}

func nonNil(posts []*domain.Post) []*domain.Post {
	if posts == nil {
		return []*domain.Post{}
	}
	return posts
}
