package web

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/service"
)

const maxUploadBytes = 8 << 20

type homeData struct {
	Posts  []*postView
	Totals *domain.FeedTotals
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	feed, err := h.posts.Featured(r.Context())
	if err != nil {
		h.serverError(w, r, "Home", err)
		return
	}
	views, err := h.postViews(r.Context(), feed.Posts)
	if err != nil {
		h.serverError(w, r, "Home", err)
		return
	}
	h.render(w, r, http.StatusOK, "home", pageData{
		Title: "BlogHub",
		Data:  homeData{Posts: views, Totals: feed.Totals},
	})
}

func (h *Handler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
			return
		}
		h.serverError(w, r, "PostDetail", err)
		return
	}
	views, err := h.postViews(r.Context(), []*domain.Post{post})
	if err != nil {
		h.serverError(w, r, "PostDetail", err)
		return
	}
	h.render(w, r, http.StatusOK, "post", pageData{Title: post.Title, Data: views[0]})
}

// ToggleLike likes the post, or unlikes it when the form sends liked=true.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	sess := service.SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id, ok := postIDParam(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		return
	}

	var err error
	if r.PostFormValue("liked") == "true" {
		_, err = h.interactions.Unlike(r.Context(), sess, id)
	} else {
		_, err = h.interactions.Like(r.Context(), sess, id)
	}
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
			return
		}
		h.serverError(w, r, "ToggleLike", err)
		return
	}
	http.Redirect(w, r, backTo(r, "/posts/"+id.String()), http.StatusSeeOther)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, err := h.interactions.AddComment(r.Context(), id, service.CommentInput{
		AuthorName: r.PostForm.Get("authorName"),
		Body:       r.PostForm.Get("body"),
	}, service.SessionFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		case domain.IsValidationError(err):
			h.addFlash(w, r, err.Error())
			http.Redirect(w, r, "/posts/"+id.String(), http.StatusSeeOther)
		default:
			h.serverError(w, r, "AddComment", err)
		}
		return
	}
	http.Redirect(w, r, "/posts/"+id.String()+"#comments", http.StatusSeeOther)
}

type dashboardData struct {
	PostCount    int
	LikeCount    int
	CommentCount int
	RecentPosts  []*postView
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := service.SessionFromContext(r.Context())
	posts, err := h.posts.ListByOwner(r.Context(), sess.UserID())
	if err != nil {
		h.serverError(w, r, "Dashboard", err)
		return
	}
	views, err := h.postViews(r.Context(), posts)
	if err != nil {
		h.serverError(w, r, "Dashboard", err)
		return
	}

	data := dashboardData{PostCount: len(views)}
	for _, v := range views {
		data.LikeCount += v.Likes
		data.CommentCount += len(v.Comments)
	}
	data.RecentPosts = views
	if len(data.RecentPosts) > 5 {
		data.RecentPosts = data.RecentPosts[:5]
	}

	h.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Dashboard", Data: data})
}

func (h *Handler) NewPostPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "new_post", pageData{Title: "Write a post"})
}

// CreatePost handles the new post form. The image arrives as a file upload
// and is stored as a data URL.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderNewPostError(w, r, http.StatusBadRequest, domain.ErrImageTooLarge.Error())
		return
	}

	image, err := uploadedImage(r)
	if err != nil {
		h.renderNewPostError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.Create(r.Context(), service.SessionFromContext(r.Context()), service.CreatePostInput{
		Title:       r.FormValue("title"),
		SubTitle:    r.FormValue("subTitle"),
		Description: r.FormValue("description"),
		ImageBase64: image,
		Sources:     strings.Split(r.FormValue("sources"), "\n"),
		Tags:        strings.Split(r.FormValue("tags"), ","),
	})
	if err != nil {
		if domain.IsValidationError(err) {
			h.renderNewPostError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.serverError(w, r, "CreatePost", err)
		return
	}

	h.addFlash(w, r, "Post published")
	http.Redirect(w, r, "/posts/"+post.ID.String(), http.StatusSeeOther)
}

func (h *Handler) renderNewPostError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "new_post", pageData{Title: "Write a post", Error: msg, Form: r.Form})
}

// uploadedImage returns the "image" upload as a data URL, or "" when no file
// was sent.
func uploadedImage(r *http.Request) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", domain.ErrInvalidImage
	}
	defer file.Close()

	if header.Size > domain.MaxImageBytes {
		return "", domain.ErrImageTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageBytes+1))
	if err != nil {
		return "", domain.ErrInvalidImage
	}
	if len(data) > domain.MaxImageBytes {
		return "", domain.ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", domain.ErrInvalidImage
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (h *Handler) MyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByOwner(r.Context(), service.SessionFromContext(r.Context()).UserID())
	if err != nil {
		h.serverError(w, r, "MyPosts", err)
		return
	}
	views, err := h.postViews(r.Context(), posts)
	if err != nil {
		h.serverError(w, r, "MyPosts", err)
		return
	}
	h.render(w, r, http.StatusOK, "my_posts", pageData{Title: "My posts", Data: views})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		return
	}

	err := h.posts.Delete(r.Context(), service.SessionFromContext(r.Context()), id)
	switch {
	case err == nil:
		h.addFlash(w, r, "Post deleted")
	case errors.Is(err, service.ErrPostNotFound):
		h.addFlash(w, r, "That post no longer exists")
	case errors.Is(err, service.ErrNotPostOwner):
		h.addFlash(w, r, "You can only delete your own posts")
	default:
		h.serverError(w, r, "DeletePost", err)
		return
	}
	http.Redirect(w, r, "/my-posts", http.StatusSeeOther)
}

// backTo returns the form's local "next" path, or fallback.
func backTo(r *http.Request, fallback string) string {
	next := r.PostFormValue("next")
	// "//host" and "/\host" are both protocol-relative to browsers.
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}
