// Package web serves the server-rendered HTML site.
package web

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

type Handler struct {
	auth         *service.AuthService
	posts        *service.PostService
	interactions *service.InteractionService
	store        sessions.Store
	pages        map[string]*template.Template
	authLimit    func(http.Handler) http.Handler
}

// NewHandler parses the page templates. authLimit may be nil.
func NewHandler(services *service.Services, store sessions.Store, authLimit func(http.Handler) http.Handler) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if authLimit == nil {
		authLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		auth:         services.Auth,
		posts:        services.Post,
		interactions: services.Interaction,
		store:        store,
		pages:        pages,
		authLimit:    authLimit,
	}, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.Session)
	r.Use(Gate)

	r.Get("/", h.Home)
	r.Get("/posts/{id}", h.PostDetail)
	r.Post("/posts/{id}/like", h.ToggleLike)
	r.Post("/posts/{id}/comments", h.AddComment)

	r.Get("/login", h.LoginPage)
	r.With(h.authLimit).Post("/login", h.Login)
	r.Get("/register", h.RegisterPage)
	r.With(h.authLimit).Post("/register", h.Register)
	r.Post("/logout", h.Logout)

	r.Get("/dashboard", h.Dashboard)
	r.Get("/dashboard/blog", h.NewPostPage)
	r.Post("/dashboard/blog", h.CreatePost)
	r.Get("/my-posts", h.MyPosts)
	r.Post("/my-posts/{id}/delete", h.DeletePost)
	r.Get("/settings", h.SettingsPage)
	r.Post("/settings", h.UpdateProfile)
	r.Post("/settings/password", h.ChangePassword)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
	})

	return r
}

// postViews attaches likes, comments and the viewer's like state to posts.
func (h *Handler) postViews(ctx context.Context, posts []*domain.Post) ([]*postView, error) {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	stats, err := h.interactions.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.PostStats, len(stats))
	for _, st := range stats {
		byID[st.PostID] = st
	}

	liked := map[uuid.UUID]bool{}
	if sess := service.SessionFromContext(ctx); sess != nil {
		if liked, err = h.interactions.LikedBy(ctx, sess.UserID(), ids); err != nil {
			return nil, err
		}
	}

	views := make([]*postView, len(posts))
	for i, p := range posts {
		v := &postView{Post: p, Ref: p.Refs(), Liked: liked[p.ID]}
		if st, ok := byID[p.ID]; ok {
			v.Likes = st.Likes
			v.Comments = st.Comments
		}
		views[i] = v
	}
	return views, nil
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msgf("[web.%s] request failed", op)
	h.render(w, r, http.StatusInternalServerError, "error", pageData{
		Title: "Something went wrong",
		Error: "Something went wrong. Please try again.",
	})
}

func postIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) logWarn(r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Msgf("[web.%s] ignored error", op)
}
