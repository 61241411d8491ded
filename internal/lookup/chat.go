package lookup

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const chatPrompt = `
You are a desktop voice assistant. Answer the user's request in at most two
short sentences suitable for being read aloud. No markdown, no lists.
`

// Chat answers free-form requests no rule matched.
type Chat struct {
	client openai.Client
	model  openai.ChatModel
}

func NewChat(apiKey string, hc *http.Client, opts ...option.RequestOption) *Chat {
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if hc != nil {
		base = append(base, option.WithHTTPClient(hc))
	}

	return &Chat{
		client: openai.NewClient(append(base, opts...)...),
		model:  openai.ChatModelGPT5Nano,
	}
}

func (c *Chat) Ask(ctx context.Context, text string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(chatPrompt),
			openai.UserMessage(text),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty message content")
	}

	log.Debug("Chat answered", "len", len(content))
	return content, nil
}
