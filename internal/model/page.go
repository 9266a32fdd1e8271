package model

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// CandidatePage is a search hit for a foundation, before fetching.
type CandidatePage struct {
	FoundationID   string `json:"foundation_id"`
	FoundationName string `json:"foundation_name"`
	Domain         string `json:"domain"`
	Query          string `json:"query"`
	ResultRank     int    `json:"result_rank"`
	Title          string `json:"title"`
	Snippet        string `json:"snippet"`
	URL            string `json:"url"`
	Error          string `json:"error"`
}

// FetchedPage is the persisted fetch/extract record for one URL. Immutable
// once stored; identified by (foundation_id, PageKey(url)).
type FetchedPage struct {
	FoundationID   string    `json:"foundation_id"`
	FoundationName string    `json:"foundation_name"`
	URL            string    `json:"url"`
	FetchedAt      time.Time `json:"fetched_at"`
	HTTPStatus     int       `json:"http_status"`
	FinalURL       string    `json:"final_url"`
	ContentType    string    `json:"content_type"`
	Title          string    `json:"title"`
	ExtractedText  string    `json:"extracted_text"`
	Error          string    `json:"error"`
}

// PageKey returns the content-addressed key for a page URL: the first 12 hex
// characters of its SHA-1. Stable across runs for the same URL.
func PageKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:12]
}

// TriageResult records the triage decision for one fetched page. Derived
// deterministically from the page; never mutated.
type TriageResult struct {
	FoundationID   string `json:"foundation_id"`
	FoundationName string `json:"foundation_name"`
	PageKey        string `json:"page_key"`
	URL            string `json:"url"`
	ContentType    string `json:"content_type"`
	HTTPStatus     int    `json:"http_status"`
	TextLen        int    `json:"text_len"`
	LikelyFunding  bool   `json:"likely_funding"`
	Reason         string `json:"reason"`
	Error          string `json:"error"`
}

// IsPDF reports whether the triaged page is a PDF document.
func (t TriageResult) IsPDF() bool {
	return strings.Contains(strings.ToLower(t.ContentType), "pdf")
}
