package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dom/bloghub/internal/domain"
	"github.com/dom/bloghub/internal/metrics"
	"github.com/dom/bloghub/internal/repository"
	"github.com/google/uuid"
)

type InteractionService struct {
	postRepo    repository.PostRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	events      EventPublisher
}

func NewInteractionService(postRepo repository.PostRepository, likeRepo repository.LikeRepository, commentRepo repository.CommentRepository, events EventPublisher) *InteractionService {
	return &InteractionService{
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		events:      events,
	}
}

type CommentInput struct {
	AuthorName string
	Body       string
}

// LikeResult is the post's like state after a like or unlike.
type LikeResult struct {
	PostID uuid.UUID `json:"postId"`
	Liked  bool      `json:"liked"`
	Likes  int       `json:"likes"`
}

// Like records the session user's like. Liking twice keeps one like.
func (s *InteractionService) Like(ctx context.Context, sess *Session, postID uuid.UUID) (*LikeResult, error) {
	if sess == nil || sess.User == nil {
		return nil, ErrNotAuthenticated
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	created, err := s.likeRepo.Create(ctx, &domain.Like{PostID: postID, UserID: sess.User.ID})
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}

	result, err := s.likeResult(ctx, postID, true)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.ContentEvents.WithLabelValues("like").Inc()
		s.events.Publish(Event{Type: EventPostLiked, PostID: postID, Payload: result})
	}
	return result, nil
}

func (s *InteractionService) Unlike(ctx context.Context, sess *Session, postID uuid.UUID) (*LikeResult, error) {
	if sess == nil || sess.User == nil {
		return nil, ErrNotAuthenticated
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	removed, err := s.likeRepo.Delete(ctx, postID, sess.User.ID)
	if err != nil {
		return nil, fmt.Errorf("unlike post: %w", err)
	}

	result, err := s.likeResult(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if removed {
		s.events.Publish(Event{Type: EventPostUnliked, PostID: postID, Payload: result})
	}
	return result, nil
}

// AddComment stores a comment. sess may be nil for anonymous readers; a
// signed-in reader without a name comments under their full name.
func (s *InteractionService) AddComment(ctx context.Context, postID uuid.UUID, input CommentInput, sess *Session) (*domain.Comment, error) {
	name := strings.TrimSpace(input.AuthorName)
	body := strings.TrimSpace(input.Body)
	if name == "" && sess != nil && sess.User != nil {
		name = sess.User.FullName
	}
	if name == "" {
		return nil, domain.ErrCommentAuthorRequired
	}
	if body == "" {
		return nil, domain.ErrCommentBodyRequired
	}
	if utf8.RuneCountInString(body) > domain.MaxCommentLength {
		return nil, domain.ErrCommentTooLong
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:         uuid.New(),
		PostID:     postID,
		AuthorName: name,
		Body:       body,
	}
	if sess != nil && sess.User != nil {
		userID := sess.User.ID
		comment.UserID = &userID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	metrics.ContentEvents.WithLabelValues("comment").Inc()
	s.events.Publish(Event{Type: EventCommentAdded, PostID: postID, Payload: comment})
	return comment, nil
}

func (s *InteractionService) Comments(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPostID(ctx, postID)
}

// Stats aggregates likes and comments for each post, in the order given.
// Duplicate ids are reported once. Posts with no interactions get zero values.
func (s *InteractionService) Stats(ctx context.Context, postIDs []uuid.UUID) ([]*domain.PostStats, error) {
	ids := dedupe(postIDs)

	likes, err := s.likeRepo.CountByPostIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	comments, err := s.commentRepo.ListByPostIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	byPost := make(map[uuid.UUID]*domain.PostStats, len(ids))
	stats := make([]*domain.PostStats, 0, len(ids))
	for _, id := range ids {
		st := &domain.PostStats{PostID: id, Likes: likes[id], Comments: []*domain.Comment{}}
		byPost[id] = st
		stats = append(stats, st)
	}
	for _, c := range comments {
		if st, ok := byPost[c.PostID]; ok {
			st.Comments = append(st.Comments, c)
		}
	}
	return stats, nil
}

// LikedBy returns which of postIDs the user has liked.
func (s *InteractionService) LikedBy(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.likeRepo.LikedPostIDs(ctx, userID, dedupe(postIDs))
}

func (s *InteractionService) ensurePost(ctx context.Context, postID uuid.UUID) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

func (s *InteractionService) likeResult(ctx context.Context, postID uuid.UUID, liked bool) (*LikeResult, error) {
	counts, err := s.likeRepo.CountByPostIDs(ctx, []uuid.UUID{postID})
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &LikeResult{PostID: postID, Liked: liked, Likes: counts[postID]}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
