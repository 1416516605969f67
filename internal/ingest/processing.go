package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// hashContent is the change-detection fingerprint, grounded on
// original_source/core/processing.py's hash_content.
func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// buildExcerpt collapses whitespace and truncates to maxLength runes,
// matching original_source/core/processing.py's build_excerpt.
func buildExcerpt(content string, maxLength int) string {
	normalized := strings.Join(strings.Fields(content), " ")
	runes := []rune(normalized)
	if len(runes) <= maxLength {
		return normalized
	}
	return string(runes[:maxLength])
}

// normalizeContent strips HTML to plain text and collapses whitespace.
// Readability's main-content extraction is tried first (it drops nav/ad
// boilerplate far better than a blanket tag strip); goquery's raw-text
// walk is the fallback when the page doesn't parse as an article.
// Grounded on original_source/core/processing.py's normalize_content,
// generalized from BeautifulSoup's get_text to this module's HTML stack.
func normalizeContent(raw, sourceURL string) string {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, "<html") && !strings.Contains(raw, "</") {
		return strings.Join(strings.Fields(raw), " ")
	}

	base, _ := url.Parse(sourceURL)
	if base != nil {
		if article, err := readability.FromReader(strings.NewReader(raw), base); err == nil {
			if text := strings.TrimSpace(strings.Join(strings.Fields(article.TextContent), " ")); text != "" {
				return text
			}
		}
	}

	return strings.Join(strings.Fields(textFromHTML(raw)), " ")
}

func textFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// chunkText splits text into overlapping windows, grounded on
// original_source/core/processing.py's chunk_text.
func chunkText(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize < 100 {
		chunkSize = 100
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > chunkSize-1 {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	length := len(runes)
	var chunks []string
	start := 0
	for start < length {
		end := start + chunkSize
		if end > length {
			end = length
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == length {
			break
		}
		start = end - overlap
	}
	return chunks
}
