package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultPrompt is used when the caller does not supply a prompt of their own.
const DefaultPrompt = "Generate a LaTeX document that summarizes the provided data."

// SystemPrompt frames every synthesis call regardless of provider.
const SystemPrompt = "You are an expert generator of technical documents in LaTeX. " +
	"Respond with a complete, compilable LaTeX document and nothing else."

// Synthesizer is the core interface that all text-generation integrations must
// implement. Never call a specific provider directly — always inject this interface.
type Synthesizer interface {
	// Synthesize turns a report request into a LaTeX document body.
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string
}

// SynthesisRequest is the input to a document synthesis operation. Params is
// opaque to the pipeline and passed through to the provider verbatim.
type SynthesisRequest struct {
	Type   string
	Period string
	Params map[string]any
	Prompt string
}

// UserContent renders the request as the user message sent to the provider:
// the prompt followed by the report classification and pretty-printed params.
func (r SynthesisRequest) UserContent() string {
	prompt := r.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	params, err := json.MarshalIndent(r.Params, "", "  ")
	if err != nil {
		params = []byte("{}")
	}
	return fmt.Sprintf("%s\n\nReport type: %s\nPeriod: %s\n\nParameters:\n%s",
		prompt, r.Type, r.Period, params)
}
