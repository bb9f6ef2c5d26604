package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MinDescriptionLength = 100
	MaxImageBytes        = 5 * 1024 * 1024
	FeaturedPostCount    = 6
)

// Reference holds a post's source citations and topical tags.
type Reference struct {
	Sources []string `json:"sources"`
	Tags    []string `json:"tags"`
}

func (r Reference) IsEmpty() bool {
	return len(r.Sources) == 0 && len(r.Tags) == 0
}

// NewReference trims every entry and drops blanks, keeping order.
func NewReference(sources, tags []string) Reference {
	return Reference{Sources: compact(sources), Tags: compact(tags)}
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type Post struct {
	ID          uuid.UUID                     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID                     `json:"userId" gorm:"type:uuid;not null;index"`
	Title       string                        `json:"title" gorm:"not null"`
	SubTitle    *string                       `json:"subTitle,omitempty"`
	Description string                        `json:"description" gorm:"type:text;not null"`
	ImageBase64 *string                       `json:"imageBase64,omitempty" gorm:"type:text"`
	Reference   datatypes.JSONType[Reference] `json:"-"`
	CreatedAt   time.Time                     `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time                     `json:"updatedAt"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GORM
func (Post) TableName() string {
	return "blog_posts"
}

// Refs returns the post's reference, or nil when it has no sources and no tags.
func (p *Post) Refs() *Reference {
	ref := p.Reference.Data()
	if ref.IsEmpty() {
		return nil
	}
	return &ref
}

// MarshalJSON reports the reference as "reference", null when empty.
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return json.Marshal(struct {
		plain
		Reference *Reference `json:"reference"`
	}{plain(p), p.Refs()})
}

// Validate checks the post fields that must hold before it is stored.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return ErrDescriptionRequired
	}
	if utf8.RuneCountInString(desc) < MinDescriptionLength {
		return ErrDescriptionTooShort
	}
	if p.ImageBase64 != nil {
		if err := ValidateImageDataURL(*p.ImageBase64); err != nil {
			return err
		}
	}
	return nil
}

// ValidateImageDataURL accepts "data:image/<type>;base64,<payload>" with a
// decoded payload of at most MaxImageBytes.
func ValidateImageDataURL(s string) error {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}
