package monitor

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentProcessor_ProcessContent(t *testing.T) {
	processor := NewContentProcessor(zerolog.Nop())
	content := []byte("<html><head><title>  My\n  Page </title></head><body>x</body></html>")

	update, err := processor.ProcessContent("https://example.com/", content, "text/html")
	require.NoError(t, err)
	require.NotNil(t, update)

	assert.Equal(t, "https://example.com/", update.URL)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(content)), update.NewHash)
	assert.Equal(t, "My Page", update.Title, "title whitespace is collapsed")
	assert.Equal(t, content, update.Content)
	assert.False(t, update.FetchedAt.IsZero())
}

func TestContentProcessor_ProcessContent_NonHTML(t *testing.T) {
	processor := NewContentProcessor(zerolog.Nop())

	update, err := processor.ProcessContent("https://example.com/feed.json", []byte(`{"a":1}`), "application/json")
	require.NoError(t, err)
	assert.Empty(t, update.Title)
}

func TestContentProcessor_ProcessContent_EmptyBody(t *testing.T) {
	processor := NewContentProcessor(zerolog.Nop())

	update, err := processor.ProcessContent("https://example.com/", nil, "text/html")
	require.NoError(t, err)
	assert.NotEmpty(t, update.NewHash)
}

func TestContentProcessor_ProcessContent_HashChangesWithContent(t *testing.T) {
	processor := NewContentProcessor(zerolog.Nop())

	first, err := processor.ProcessContent("u", []byte("one"), "text/plain")
	require.NoError(t, err)
	second, err := processor.ProcessContent("u", []byte("two"), "text/plain")
	require.NoError(t, err)

	assert.NotEqual(t, first.NewHash, second.NewHash)
}
