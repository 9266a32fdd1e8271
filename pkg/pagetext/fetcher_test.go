package pagetext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grantsPage = `<!DOCTYPE html>
<html>
<head><title>Alpha Foundation Grants</title>
<script>analytics();</script>
<style>body { color: red; }</style>
</head>
<body>
<nav><a href="/">Home</a></nav>
<main>
<h1>Grant Programs</h1>
<p>We fund pilot research projects in cardiology.</p>
<ul><li>Apply by March 1</li><li>Awards up to $50,000</li></ul>
</main>
<footer>Copyright 2026</footer>
</body>
</html>`

func TestExtractHTML(t *testing.T) {
	title, text, err := ExtractHTML(strings.NewReader(grantsPage))
	require.NoError(t, err)

	assert.Equal(t, "Alpha Foundation Grants", title)
	assert.Contains(t, text, "Grant Programs")
	assert.Contains(t, text, "We fund pilot research projects in cardiology.")
	assert.Contains(t, text, "Apply by March 1")
	assert.NotContains(t, text, "analytics")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Copyright 2026")
	assert.NotContains(t, text, "Home")
}

func TestExtractHTMLBodyFallback(t *testing.T) {
	_, text, err := ExtractHTML(strings.NewReader(`<html><body>bare text, no blocks</body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "bare text, no blocks", text)
}

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FoundationScout/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(grantsPage))
	}))
	defer srv.Close()

	f := New()
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 200, res.HTTPStatus)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Alpha Foundation Grants", res.Title)
	assert.Contains(t, res.ExtractedText, "pilot research")
	assert.Contains(t, res.ContentType, "text/html")
	assert.Nil(t, res.RawPDF)
}

func TestFetchHTTPErrorIsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New()
	res, err := f.Fetch(context.Background(), srv.URL+"/gone")
	require.NoError(t, err)
	assert.Equal(t, 404, res.HTTPStatus)
	assert.Equal(t, "HTTP 404", res.Error)
	assert.Empty(t, res.ExtractedText)
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>final page</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New()
	res, err := f.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", res.FinalURL)
	assert.Contains(t, res.ExtractedText, "final page")
}

func TestFetchCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><body><p>hi</p></body></html>`))
	}))
	defer srv.Close()

	f := New(WithUserAgent("ScoutBot/2.0"))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ScoutBot/2.0", gotUA)
}

func TestFetchCapsTextLength(t *testing.T) {
	long := strings.Repeat("funding opportunities for research ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>` + long + `</p></body></html>`))
	}))
	defer srv.Close()

	f := New(WithMaxTextChars(100))
	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.ExtractedText, 100)
}

func TestCapText(t *testing.T) {
	assert.Equal(t, "abc", capText("abc", 10))
	assert.Equal(t, "ab", capText("abcdef", 2))
	assert.Equal(t, "abcdef", capText("abcdef", 0))
}
