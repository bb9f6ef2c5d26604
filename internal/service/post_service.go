package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/metrics"
	"github.com/dom/bloghub/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("only the author can delete this post")
)

type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
}

func NewPostService(postRepo repository.PostRepository, events EventPublisher) *PostService {
	return &PostService{postRepo: postRepo, events: events}
}

type CreatePostInput struct {
	Title       string
	SubTitle    string
	Description string
	ImageBase64 string
	Sources     []string
	Tags        []string
}

// Feed is the home page content: the newest posts and blog-wide totals.
type Feed struct {
	Posts  []*domain.Post     `json:"posts"`
	Totals *domain.FeedTotals `json:"totals"`
}

// Create validates the input and stores a post owned by the session's user.
// Nothing is written when validation fails.
func (s *PostService) Create(ctx context.Context, sess *Session, input CreatePostInput) (*domain.Post, error) {
	if sess == nil || sess.User == nil {
		return nil, ErrNotAuthenticated
	}

	post := &domain.Post{
		ID:          uuid.New(),
		UserID:      sess.User.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Reference:   datatypes.NewJSONType(domain.NewReference(input.Sources, input.Tags)),
	}
	if sub := strings.TrimSpace(input.SubTitle); sub != "" {
		post.SubTitle = &sub
	}
	if img := strings.TrimSpace(input.ImageBase64); img != "" {
		post.ImageBase64 = &img
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = sess.User.Sanitized()

	metrics.ContentEvents.WithLabelValues("post_created").Inc()
	s.events.Publish(Event{Type: EventPostCreated, PostID: post.ID, Payload: post})
	return post, nil
}

// List returns posts newest first. limit is clamped to [1, MaxPageSize].
func (s *PostService) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	limit, offset = ClampPage(limit, offset)
	return s.postRepo.List(ctx, limit, offset)
}

// ClampPage applies the paging bounds List uses.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *PostService) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error) {
	return s.postRepo.ListByUserID(ctx, userID)
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) Featured(ctx context.Context) (*Feed, error) {
	posts, err := s.postRepo.List(ctx, domain.FeaturedPostCount, 0)
	if err != nil {
		return nil, err
	}
	totals, err := s.postRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return &Feed{Posts: posts, Totals: totals}, nil
}

// Delete removes a post with its likes and comments. Only the author or an
// admin may delete.
func (s *PostService) Delete(ctx context.Context, sess *Session, id uuid.UUID) error {
	if sess == nil || sess.User == nil {
		return ErrNotAuthenticated
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != sess.User.ID && !sess.User.IsAdmin() {
		return ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	metrics.ContentEvents.WithLabelValues("post_deleted").Inc()
	s.events.Publish(Event{Type: EventPostDeleted, PostID: id})
	return nil
}
