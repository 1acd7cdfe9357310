// Package synth provides document synthesis backed by external text-generation providers.
package synth

import (
	"fmt"

	"github.com/andresmv/reportpipe/internal/config"
	"github.com/andresmv/reportpipe/internal/synth/anthropic"
	"github.com/andresmv/reportpipe/internal/synth/ollama"
	"github.com/andresmv/reportpipe/internal/synth/openai"
	"github.com/andresmv/reportpipe/pkg/models"
)

// NewSynthesizer constructs the appropriate synthesis provider based on config.
// Called once at server startup.
func NewSynthesizer(cfg config.AIConfig) (models.Synthesizer, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q: must be one of openai, anthropic, ollama", cfg.Provider)
	}
}
