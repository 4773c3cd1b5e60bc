package adapter

import "context"

// ContentGenerator is the port for the AI backend that produces the
// actual feature output (resume text, quiz questions, roadmaps). Prompt
// construction and response shaping live with the caller; the core only
// gates the call.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
