package mailer

import (
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewRenderer(testFS(), "layouts")
	result, err := r.Render("base.html", "confirm.md", map[string]string{
		"Email": "amy@example.com",
		"URL":   "https://studio.test/api/newsletters/confirm?token=t&email=amy%40example.com",
	})
	require.NoError(t, err)

	require.Contains(t, result.Text, "Hello **amy@example.com**!")
	require.NotContains(t, result.Text, "<strong>")
	require.Contains(t, result.HTML, "<html><body>")
	require.Contains(t, result.HTML, "<strong>amy@example.com</strong>")
	require.Contains(t, result.HTML, `href="https://studio.test/api/newsletters/confirm?token=t&amp;email=amy%40example.com"`)
	require.Contains(t, result.HTML, ">Confirm Subscription</a>")
	require.Equal(t, "Confirm {{.Email}}", result.Metadata["Subject"])
}

func TestRenderer_MissingLayout(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer(testFS(), "").Render("nope.html", "confirm.md", nil)
	require.ErrorIs(t, err, ErrLayoutNotFound)
}

type countingFS struct {
	fs.FS
	opens atomic.Int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

func TestRenderer_CachesParsedFiles(t *testing.T) {
	t.Parallel()

	cfs := &countingFS{FS: testFS()}
	r := NewRenderer(cfs, "")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render("base.html", "confirm.md", map[string]any{"Email": i, "URL": "https://x.test"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// one read for the template, one for the layout
	require.Equal(t, int32(2), cfs.opens.Load())
}

func TestRenderer_DifferentDataDifferentOutput(t *testing.T) {
	t.Parallel()

	r := NewRenderer(fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(`{{.Content}}`)},
		"hi.md":             &fstest.MapFile{Data: []byte(`Hi {{.}}`)},
	}, "")

	a, err := r.Render("base.html", "hi.md", "Amy")
	require.NoError(t, err)
	b, err := r.Render("base.html", "hi.md", "Ben")
	require.NoError(t, err)
	require.Contains(t, a.HTML, "Hi Amy")
	require.Contains(t, b.HTML, "Hi Ben")
}
