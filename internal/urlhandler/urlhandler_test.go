package urlhandler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already absolute", input: "https://example.com/page", want: "https://example.com/page"},
		{name: "missing scheme", input: "example.com/page", want: "http://example.com/page"},
		{name: "surrounding whitespace", input: "  https://example.com  ", want: "https://example.com"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "no host", input: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateURLFormat(t *testing.T) {
	assert.NoError(t, ValidateURLFormat("https://example.com"))
	assert.NoError(t, ValidateURLFormat("http://example.com/path?q=1"))

	assert.Error(t, ValidateURLFormat(""))
	assert.Error(t, ValidateURLFormat("ftp://example.com"))
	assert.Error(t, ValidateURLFormat("example.com"), "relative URLs are rejected")
	assert.Error(t, ValidateURLFormat("https://"))
}

func TestHostnameOf(t *testing.T) {
	assert.Equal(t, "example.com", HostnameOf("https://example.com/some/page"))
	assert.Equal(t, "example.com", HostnameOf("https://example.com:8080/"))
	assert.Equal(t, "not a url", HostnameOf("not a url"))
}

func TestReadURLsFromFile(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("valid file with comments and blanks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "targets.txt")
		content := "# watched pages\nhttps://example.com/\n\nexample.org/news\n# trailing comment\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		urls, err := ReadURLsFromFile(path, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/", "http://example.org/news"}, urls)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "nope.txt"), logger)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("directory instead of file", func(t *testing.T) {
		_, err := ReadURLsFromFile(t.TempDir(), logger)
		assert.Error(t, err)
	})

	t.Run("file with no usable URLs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(path, []byte("# only comments\n\n"), 0644))

		_, err := ReadURLsFromFile(path, logger)
		assert.ErrorIs(t, err, ErrFileEmpty)
	})
}
