package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andresmv/reportpipe/internal/config"
	"github.com/andresmv/reportpipe/pkg/models"
)

// temperature is kept low; report bodies should be deterministic, not creative.
const temperature = 0.3

// Provider implements models.Synthesizer using the OpenAI chat/completions API.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Synthesize(ctx context.Context, req models.SynthesisRequest) (string, error) {
	start := time.Now()

	body := map[string]any{
		"model":       p.cfg.Model,
		"temperature": temperature,
		"messages": []map[string]any{
			{"role": "system", "content": models.SystemPrompt},
			{"role": "user", "content": req.UserContent()},
		},
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := p.post(ctx, endpoint, body)
	if err != nil {
		slog.Error("synth.openai.http_error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty document in openai response")
	}

	slog.Info("synth.openai.ok",
		"model", p.cfg.Model,
		"document_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

func (p *Provider) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}

var _ models.Synthesizer = (*Provider)(nil)
