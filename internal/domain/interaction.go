package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxCommentLength = 2000

// Like records that a user liked a post. A user likes a post at most once.
type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PostID    uuid.UUID `json:"postId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reader's comment on a post. Anonymous readers leave a name only.
type Comment struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PostID     uuid.UUID  `json:"postId" gorm:"type:uuid;not null;index"`
	UserID     *uuid.UUID `json:"userId,omitempty" gorm:"type:uuid"`
	AuthorName string     `json:"authorName" gorm:"not null"`
	Body       string     `json:"body" gorm:"type:text;not null"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"index"`
}

// PostStats is the aggregated interaction data for one post.
type PostStats struct {
	PostID   uuid.UUID  `json:"postId"`
	Likes    int        `json:"likes"`
	Comments []*Comment `json:"comments"`
}

// FeedTotals summarizes the whole blog for the home page.
type FeedTotals struct {
	TotalPosts   int64 `json:"totalPosts"`
	TotalAuthors int64 `json:"totalAuthors"`
}
