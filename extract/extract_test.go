package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Extractor
	}{
		{"notes.txt", PlainText{}},
		{"README.MD", PlainText{}},
		{"docs/guide.markdown", PlainText{}},
		{"page.html", HTML{}},
		{"page.HTM", HTML{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ForPath(tt.path)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
			assert.True(t, Supported(tt.path))
		})
	}

	for _, path := range []string{"scan.pdf", "audio.mp3", "noext"} {
		_, err := ForPath(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, path)
		assert.False(t, Supported(path))
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".html")
	assert.IsIncreasing(t, exts)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText{}.Extract(context.Background(), strings.NewReader("\uFEFF# Title\r\n\r\nBody  text.\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody  text.\n", text)

	_, err = PlainText{}.Extract(context.Background(), strings.NewReader("\xff\xfe"))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestHTML(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Geography</title><style>.x { color: red }</style></head>
<body>
  <h1>France</h1>
  <!-- navigation -->
  <p>The capital of <b>France</b>
     is Paris &amp; more.</p>
  <script>var secret = "hidden";</script>
  <ul><li>one</li><li>two</li></ul>
  <p>Line<br>break</p>
</body>
</html>`

	text, err := HTML{}.Extract(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Geography\n\nFrance\n\nThe capital of France is Paris & more.\n\none\ntwo\n\nLine\nbreak", text)
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "navigation")
}

func TestHTML_Table(t *testing.T) {
	text, err := HTML{}.Extract(context.Background(),
		strings.NewReader("<table><tr><th>City</th><th>Country</th></tr><tr><td>Paris</td><td>France</td></tr></table>"))
	require.NoError(t, err)
	assert.Equal(t, "City Country\nParis France", text)
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := HTML{}.Extract(ctx, strings.NewReader("<p>x</p>"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paris.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>The capital of France is Paris.</p>"), 0o644))

	doc, err := File(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "paris.html", doc.Source)
	assert.Equal(t, "The capital of France is Paris.", doc.Text)

	_, err = File(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = File(context.Background(), filepath.Join(dir, "scan.pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReader(t *testing.T) {
	doc, err := Reader(context.Background(), "uploads/notes.md", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, &Document{Source: "notes.md", Text: "hello"}, doc)
}
