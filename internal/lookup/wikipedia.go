package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1"

type Wikipedia struct {
	HTTP    *http.Client
	BaseURL string
	// Sentences caps the summary length; 0 keeps the whole extract.
	Sentences int
}

// Summary returns the lead extract of the page best matching query.
func (w *Wikipedia) Summary(ctx context.Context, query string) (string, error) {
	base := w.BaseURL
	if base == "" {
		base = DefaultWikipediaURL
	}

	title := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	res, status, err := fetch(ctx, w.HTTP, base+"/page/summary/"+url.PathEscape(title)+"?redirect=true")
	if err != nil {
		return "", fmt.Errorf("wikipedia: %w", err)
	}

	switch {
	case status == http.StatusNotFound:
		return "", ErrNotFound
	case status != http.StatusOK:
		return "", fmt.Errorf("wikipedia: status %d", status)
	case res.Get("type").String() == "disambiguation":
		return "", ErrAmbiguous
	}

	extract := res.Get("extract").String()
	if extract == "" {
		return "", ErrNotFound
	}
	if w.Sentences > 0 {
		extract = Sentences(extract, w.Sentences)
	}

	return extract, nil
}
