package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

type Sense struct {
	Definition string
	Example    string
}

type Meaning struct {
	PartOfSpeech string
	Senses       []Sense
}

type Definition struct {
	Word     string
	Meanings []Meaning
}

type Dictionary struct {
	HTTP    *http.Client
	BaseURL string
}

// Define returns the first dictionary entry for word.
func (d *Dictionary) Define(ctx context.Context, word string) (Definition, error) {
	base := d.BaseURL
	if base == "" {
		base = DefaultDictionaryURL
	}

	res, status, err := fetch(ctx, d.HTTP, base+"/"+url.PathEscape(word))
	if err != nil {
		return Definition{}, fmt.Errorf("dictionary: %w", err)
	}

	if status == http.StatusNotFound || res.Get("title").String() == "No Definitions Found" {
		return Definition{}, ErrNotFound
	}
	if !res.IsArray() || len(res.Array()) == 0 {
		return Definition{}, fmt.Errorf("dictionary: unexpected response (status %d)", status)
	}

	entry := res.Array()[0]
	out := Definition{Word: entry.Get("word").String()}
	for _, m := range entry.Get("meanings").Array() {
		meaning := Meaning{PartOfSpeech: m.Get("partOfSpeech").String()}
		for _, s := range m.Get("definitions").Array() {
			meaning.Senses = append(meaning.Senses, Sense{
				Definition: s.Get("definition").String(),
				Example:    s.Get("example").String(),
			})
		}
		out.Meanings = append(out.Meanings, meaning)
	}

	return out, nil
}
