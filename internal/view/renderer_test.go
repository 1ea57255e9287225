package view

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"partials/header.html": {Data: []byte(`{{define "header"}}<title>{{.title}}</title>{{if .user}}<b>{{.user}}</b>{{end}}{{end}}`)},
		"partials/footer.html": {Data: []byte(`{{define "footer"}}<footer>&copy; {{year}}</footer>{{end}}`)},
		"static/404.html":      {Data: []byte(`{{template "header" .}}<p>{{.url}} not found</p>`)},
		"index.html":           {Data: []byte(`{{template "header" .}}<h1>home</h1>{{template "footer" .}}`)},
		"notes.txt":            {Data: []byte(`ignored`)},
	}
}

func newContext() echo.Context {
	return echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
}

func TestRenderer_Render(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	c := newContext()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "static/404", map[string]any{"url": "/missing?<x>", "title": "404 - Page Not Found"}, c))
	require.Equal(t, "<title>404 - Page Not Found</title><p>/missing?&lt;x&gt; not found</p>", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(&buf, "index.html", echo.Map{"title": "Home"}, c))
	require.Contains(t, buf.String(), "<h1>home</h1>")
	require.Contains(t, buf.String(), "<footer>")

	require.True(t, r.Has("static/404.html"))
	require.False(t, r.Has("partials/header"))
	require.False(t, r.Has("notes"))

	err = r.Render(&buf, "missing", nil, c)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderer_Locals(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	c := newContext()
	SetLocal(c, "user", "jane")
	SetLocal(c, "title", "from locals")
	require.Equal(t, "jane", Locals(c)["user"])

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "static/404", map[string]any{"title": "explicit", "url": "/x"}, c))
	require.Equal(t, "<title>explicit</title><b>jane</b><p>/x not found</p>", buf.String())
}

func TestRenderer_Reload(t *testing.T) {
	fsys := testFS()
	r, err := New(fsys, WithReload(true))
	require.NoError(t, err)

	fsys["about.html"] = &fstest.MapFile{Data: []byte(`about {{.title}}`)}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "about", map[string]any{"title": "us"}, newContext()))
	require.Equal(t, "about us", buf.String())

	cached, err := New(testFS())
	require.NoError(t, err)
	require.False(t, cached.Has("about"))
}

func TestNew_ParseError(t *testing.T) {
	_, err := New(fstest.MapFS{"broken.html": {Data: []byte(`{{if}}`)}})
	require.Error(t, err)
}
