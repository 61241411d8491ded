// Package lookup holds the HTTP collaborators the assistant calls out to:
// weather, news, dictionary, Wikipedia and an optional LLM fallback.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous query")
)

const maxBody = 4 << 20

func fetch(ctx context.Context, hc *http.Client, url string) (gjson.Result, int, error) {
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vassist/1.0")

	resp, err := hc.Do(req)
	if err != nil {
		return gjson.Result{}, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return gjson.Result{}, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, resp.StatusCode, fmt.Errorf("invalid json (status %d)", resp.StatusCode)
	}

	return gjson.ParseBytes(body), resp.StatusCode, nil
}

// Sentences returns at most n leading sentences of text.
func Sentences(text string, n int) string {
	text = strings.TrimSpace(text)
	count := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				count++
				if count == n {
					return text[:i+1]
				}
			}
		}
	}
	return text
}
