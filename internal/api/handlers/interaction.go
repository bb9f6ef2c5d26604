package handlers

import (
	"net/http"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
}

func NewInteractionHandler(interactionService *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService}
}

type AddCommentRequest struct {
	AuthorName string `json:"authorName" validate:"max=100"`
	Body       string `json:"body" validate:"required"`
}

func (h *InteractionHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.interactionService.Like(r.Context(), service.SessionFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, "InteractionHandler.Like", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InteractionHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.interactionService.Unlike(r.Context(), service.SessionFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, "InteractionHandler.Unlike", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InteractionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	comments, err := h.interactionService.Comments(r.Context(), id)
	if err != nil {
		writeError(w, r, "InteractionHandler.ListComments", err)
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// AddComment accepts anonymous comments; signed-in callers may omit authorName.
func (h *InteractionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(w, r)
	if !ok {
		return
	}

	var req AddCommentRequest
	if !decode(w, r, &req) {
		return
	}

	comment, err := h.interactionService.AddComment(r.Context(), id, service.CommentInput{
		AuthorName: req.AuthorName,
		Body:       req.Body,
	}, service.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, r, "InteractionHandler.AddComment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
