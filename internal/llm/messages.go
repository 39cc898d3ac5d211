package llm

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DefaultMediaType is assumed when the caller does not know the image type.
const DefaultMediaType = "image/jpeg"

// defaultMaxTokens caps garment descriptions.
const defaultMaxTokens = 1000

var errEmptyContent = errors.New("model returned empty content")

// messagesRequest is the Messages API body. Bedrock uses the same shape with
// anthropic_version instead of model.
type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// imageTurn builds the user turn: the image block first, then the prompt.
func imageTurn(prompt string, image []byte, mediaType string) []message {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return []message{{
		Role: "user",
		Content: []contentBlock{
			{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(image),
				},
			},
			{Type: "text", Text: prompt},
		},
	}}
}

// firstText returns the first text block.
func (r messagesResponse) firstText() (string, error) {
	for _, c := range r.Content {
		if c.Type == "" || c.Type == "text" {
			return c.Text, nil
		}
	}
	return "", errEmptyContent
}

// DetectMediaType sniffs common image signatures, falling back to DefaultMediaType.
func DetectMediaType(image []byte) string {
	s := string(image)
	switch {
	case strings.HasPrefix(s, "\x89PNG\r\n\x1a\n"):
		return "image/png"
	case strings.HasPrefix(s, "GIF87a"), strings.HasPrefix(s, "GIF89a"):
		return "image/gif"
	case len(s) >= 12 && s[:4] == "RIFF" && s[8:12] == "WEBP":
		return "image/webp"
	default:
		return DefaultMediaType
	}
}
