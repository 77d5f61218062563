package container

import (
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/testutil"
)

func sampleFiles() []testutil.File {
	return []testutil.File{
		testutil.JSONFile("actor.json", `{"id":"https://x.example/users/bob"}`),
		testutil.JSONFile("outbox.json", `{"orderedItems":[]}`),
		{Name: "media_attachments/"},
		{Name: "media_attachments/files/a.png", Body: []byte{0x89, 'P', 'N', 'G'}},
		{Name: "media_attachments/files/b.mp4", Body: []byte("video")},
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
		wantErr  bool
	}{
		{"archive.zip", FormatZip, false},
		{"ARCHIVE.ZIP", FormatZip, false},
		{"archive-20240101.tar.gz", FormatTarGz, false},
		{"archive.tgz", FormatTarGz, false},
		{"archive.tar", "", true},
		{"archive.json", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestOpen_BothFormatsBehaveAlike(t *testing.T) {
	archives := map[string][]byte{
		"export.zip":    testutil.BuildZip(t, sampleFiles()...),
		"export.tar.gz": testutil.BuildTarGz(t, sampleFiles()...),
	}

	for name, data := range archives {
		t.Run(name, func(t *testing.T) {
			c, err := Open(data, name)
			require.NoError(t, err)
			defer c.Close()

			t.Run("exact lookup", func(t *testing.T) {
				e, ok := c.File("actor.json")
				require.True(t, ok)
				text, err := e.Text()
				require.NoError(t, err)
				assert.Contains(t, text, "x.example/users/bob")

				_, ok = c.File("missing.json")
				assert.False(t, ok)
			})

			t.Run("lookup tolerates leading slash", func(t *testing.T) {
				_, ok := c.File("/outbox.json")
				assert.True(t, ok)
			})

			t.Run("pattern lookup", func(t *testing.T) {
				matches := c.Find(regexp.MustCompile(`^media_attachments/.+\.png$`))
				require.Len(t, matches, 1)
				assert.Equal(t, "media_attachments/files/a.png", matches[0].Name())

				data, err := matches[0].Bytes()
				require.NoError(t, err)
				assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
			})

			t.Run("enumeration keeps order and marks directories", func(t *testing.T) {
				entries := c.Entries()
				require.Len(t, entries, 5)
				assert.Equal(t, "actor.json", entries[0].Name())
				assert.Equal(t, "media_attachments", entries[2].Name())
				assert.True(t, entries[2].IsDir())

				body, err := entries[2].Bytes()
				require.NoError(t, err)
				assert.Empty(t, body)
			})

			t.Run("raw reader", func(t *testing.T) {
				e, ok := c.File("media_attachments/files/b.mp4")
				require.True(t, ok)
				rc, err := e.Open()
				require.NoError(t, err)
				defer rc.Close()
				body, err := io.ReadAll(rc)
				require.NoError(t, err)
				assert.Equal(t, "video", string(body))
			})
		})
	}
}

func TestOpen_Format(t *testing.T) {
	c, err := Open(testutil.BuildZip(t, sampleFiles()...), "a.zip")
	require.NoError(t, err)
	assert.Equal(t, FormatZip, c.Format())

	c, err = Open(testutil.BuildTarGz(t, sampleFiles()...), "a.tgz")
	require.NoError(t, err)
	assert.Equal(t, FormatTarGz, c.Format())
}

func TestOpen_InvalidArchive(t *testing.T) {
	t.Run("garbage zip", func(t *testing.T) {
		_, err := Open([]byte("not a zip file"), "broken.zip")
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})

	t.Run("garbage tar.gz", func(t *testing.T) {
		_, err := Open([]byte("not gzip"), "broken.tar.gz")
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})

	t.Run("zip payload with tar.gz extension", func(t *testing.T) {
		data := testutil.BuildZip(t, sampleFiles()...)
		_, err := Open(data, "mislabelled.tgz")
		assert.ErrorIs(t, err, ErrInvalidArchive)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Open([]byte{}, "archive.rar")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "outbox.json", normalizePath("./outbox.json"))
	assert.Equal(t, "outbox.json", normalizePath("/outbox.json"))
	assert.Equal(t, "media", normalizePath("media/"))
	assert.Equal(t, "a/b.png", normalizePath(`a\b.png`))
}
