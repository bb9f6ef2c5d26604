package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func TestPost_Validate(t *testing.T) {
	longDesc := strings.Repeat("a", MinDescriptionLength)
	pngURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not really a png"))

	tests := []struct {
		name    string
		post    Post
		wantErr error
	}{
		{
			name: "valid post",
			post: Post{Title: "Hello", Description: longDesc},
		},
		{
			name: "valid post with image",
			post: Post{Title: "Hello", Description: longDesc, ImageBase64: strPtr(pngURL)},
		},
		{
			name:    "missing title",
			post:    Post{Title: "   ", Description: longDesc},
			wantErr: ErrTitleRequired,
		},
		{
			name:    "missing description",
			post:    Post{Title: "Hello", Description: "  "},
			wantErr: ErrDescriptionRequired,
		},
		{
			name:    "50 character description",
			post:    Post{Title: "Hello", Description: strings.Repeat("b", 50)},
			wantErr: ErrDescriptionTooShort,
		},
		{
			name:    "padding does not count toward length",
			post:    Post{Title: "Hello", Description: "  " + strings.Repeat("c", MinDescriptionLength-1) + "  "},
			wantErr: ErrDescriptionTooShort,
		},
		{
			name: "multibyte characters count once",
			post: Post{Title: "Hello", Description: strings.Repeat("é", MinDescriptionLength)},
		},
		{
			name:    "image without data url header",
			post:    Post{Title: "Hello", Description: longDesc, ImageBase64: strPtr("aGVsbG8=")},
			wantErr: ErrInvalidImage,
		},
		{
			name:    "image with bad payload",
			post:    Post{Title: "Hello", Description: longDesc, ImageBase64: strPtr("data:image/png;base64,!!!")},
			wantErr: ErrInvalidImage,
		},
		{
			name:    "non image data url",
			post:    Post{Title: "Hello", Description: longDesc, ImageBase64: strPtr("data:text/plain;base64,aGVsbG8=")},
			wantErr: ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateImageDataURL_TooLarge(t *testing.T) {
	big := make([]byte, MaxImageBytes+1)
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(big)
	assert.ErrorIs(t, ValidateImageDataURL(url), ErrImageTooLarge)

	exact := make([]byte, MaxImageBytes)
	url = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(exact)
	assert.NoError(t, ValidateImageDataURL(url))
}

func TestNewReference(t *testing.T) {
	ref := NewReference([]string{" https://a.example ", "", "b"}, []string{"  ", "go"})
	assert.Equal(t, []string{"https://a.example", "b"}, ref.Sources)
	assert.Equal(t, []string{"go"}, ref.Tags)
	assert.False(t, ref.IsEmpty())

	assert.True(t, NewReference(nil, []string{" "}).IsEmpty())
}

func TestPost_MarshalJSONReference(t *testing.T) {
	post := Post{Title: "Hello", Reference: datatypes.NewJSONType(NewReference(nil, nil))}
	data, err := json.Marshal(post)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reference":null`)

	post.Reference = datatypes.NewJSONType(NewReference([]string{"src"}, []string{"go"}))
	data, err = json.Marshal(&post)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reference":{"sources":["src"],"tags":["go"]}`)
	assert.Contains(t, string(data), `"title":"Hello"`)
}
