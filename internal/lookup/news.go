package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const DefaultNewsURL = "https://newsapi.org/v2"

var ErrNoNews = errors.New("no headlines")

type Headline struct {
	Title       string
	Description string
	Source      string
}

type NewsAPI struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Country string
	Limit   int
}

func (n *NewsAPI) Headlines(ctx context.Context) ([]Headline, error) {
	base := n.BaseURL
	if base == "" {
		base = DefaultNewsURL
	}
	country := n.Country
	if country == "" {
		country = "us"
	}
	limit := n.Limit
	if limit <= 0 {
		limit = 5
	}

	q := url.Values{}
	q.Set("country", country)
	q.Set("pageSize", fmt.Sprint(limit))
	q.Set("apiKey", n.APIKey)

	res, _, err := fetch(ctx, n.HTTP, base+"/top-headlines?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("top headlines: %w", err)
	}

	articles := res.Get("articles").Array()
	if res.Get("status").String() != "ok" || len(articles) == 0 {
		return nil, ErrNoNews
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}

	out := make([]Headline, 0, len(articles))
	for _, a := range articles {
		out = append(out, Headline{
			Title:       a.Get("title").String(),
			Description: a.Get("description").String(),
			Source:      a.Get("source.name").String(),
		})
	}

	return out, nil
}
