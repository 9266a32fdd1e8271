// Package pagetext fetches candidate URLs and extracts readable text: HTML
// main content via goquery, PDFs via a local pdftotext subprocess.
package pagetext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Result is the fetch/extract contract consumed by the pipeline.
type Result struct {
	HTTPStatus    int
	FinalURL      string
	ContentType   string
	Title         string
	ExtractedText string
	RawPDF        []byte // set only for PDF responses, so callers can archive the original
	Error         string
}

// Fetcher retrieves a URL and extracts its text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Result, error)
}

// Option configures the fetcher.
type Option func(*httpFetcher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *httpFetcher) {
		f.http = hc
	}
}

// WithUserAgent sets the User-Agent header on outbound requests.
func WithUserAgent(ua string) Option {
	return func(f *httpFetcher) {
		f.userAgent = ua
	}
}

// WithRateLimit paces outbound requests at rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(f *httpFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPdfToText sets the pdftotext binary path used for PDF extraction.
func WithPdfToText(path string) Option {
	return func(f *httpFetcher) {
		f.pdfToText = path
	}
}

// WithMaxTextChars caps extracted text length.
func WithMaxTextChars(n int) Option {
	return func(f *httpFetcher) {
		f.maxTextChars = n
	}
}

type httpFetcher struct {
	http         *http.Client
	userAgent    string
	limiter      *rate.Limiter
	pdfToText    string
	maxTextChars int
}

// New creates a fetcher with a sane default timeout.
func New(opts ...Option) Fetcher {
	f := &httpFetcher{
		http: &http.Client{
			Timeout: 45 * time.Second,
		},
		userAgent:    "FoundationScout/1.0",
		pdfToText:    "pdftotext",
		maxTextChars: 200000,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "pagetext: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pagetext: build request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pagetext: fetch")
	}
	defer resp.Body.Close()

	result := &Result{
		HTTPStatus:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: strings.ToLower(resp.Header.Get("Content-Type")),
	}

	if resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		result.Error = "read body: " + err.Error()
		return result, nil
	}

	if strings.Contains(result.ContentType, "application/pdf") || strings.HasSuffix(strings.ToLower(result.FinalURL), ".pdf") {
		result.RawPDF = body
		text, pdfErr := f.extractPDF(ctx, body)
		if pdfErr != nil {
			result.Error = "pdf extract: " + pdfErr.Error()
			return result, nil
		}
		result.ExtractedText = capText(text, f.maxTextChars)
		return result, nil
	}

	title, text, htmlErr := ExtractHTML(bytes.NewReader(body))
	if htmlErr != nil {
		result.Error = "html extract: " + htmlErr.Error()
		return result, nil
	}
	result.Title = title
	result.ExtractedText = capText(text, f.maxTextChars)
	return result, nil
}

// ExtractHTML pulls the title and readable text out of an HTML document,
// skipping script/style/nav chrome.
func ExtractHTML(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", eris.Wrap(err, "pagetext: parse html")
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, nav, header, footer, iframe").Remove()

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var parts []string
	root.Find("h1, h2, h3, h4, p, li, td, th, blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	// Fall back to the whole body text for pages with no block structure.
	if len(parts) == 0 {
		if t := strings.TrimSpace(root.Text()); t != "" {
			parts = append(parts, t)
		}
	}

	return title, strings.Join(parts, "\n"), nil
}

// extractPDF shells out to pdftotext, feeding the PDF through a temp file.
func (f *httpFetcher) extractPDF(ctx context.Context, pdf []byte) (string, error) {
	tmp, err := os.CreateTemp("", "pagetext-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "pagetext: temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return "", eris.Wrap(err, "pagetext: write temp pdf")
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, f.pdfToText, "-layout", "-nopgbrk", tmp.Name(), "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", eris.Wrap(err, "pagetext: pdftotext")
	}

	return strings.TrimSpace(out.String()), nil
}

func capText(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
