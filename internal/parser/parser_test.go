package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptedShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with query", "https://youtu.be/abc123?t=5", "abc123"},
		{"short link without scheme", "youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"canonical watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"canonical without scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare domain", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"extraneous query params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=4", "dQw4w9WgXcQ"},
		{"embed path", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed path with query", "https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", "dQw4w9WgXcQ"},
		{"shorts path", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.ID())
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"not a url", "not a url"},
		{"wrong host", "https://vimeo.com/12345678901"},
		{"lookalike host", "https://youtube.com.evil.example/watch?v=dQw4w9WgXcQ"},
		{"watch without id", "https://www.youtube.com/watch"},
		{"watch with empty id", "https://www.youtube.com/watch?v="},
		{"short link without id", "https://youtu.be/"},
		{"id with invalid chars", "https://youtu.be/abc$123!@#x"},
		{"channel path", "https://www.youtube.com/@somechannel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.NotEmpty(t, parseErr.Message)
		})
	}
}

func TestParse_NeverReturnsPartialIdentifier(t *testing.T) {
	ref, err := Parse("https://youtu.be/abc$123!@#x")
	require.Error(t, err)
	assert.Empty(t, ref.ID())
}

func TestVideoReference_URL(t *testing.T) {
	ref, err := Parse("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", ref.URL())
}
