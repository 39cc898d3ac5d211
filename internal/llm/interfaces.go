package llm

import "context"

// VisionGenerator describes an image in response to a text prompt.
// Implementations send the image and the prompt as a single user turn.
type VisionGenerator interface {
	DescribeImage(ctx context.Context, prompt string, image []byte, mediaType string) (string, error)
	GetModel() string
}
