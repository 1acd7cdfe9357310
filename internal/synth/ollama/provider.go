package ollama

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

// Provider implements models.Synthesizer using a local Ollama instance.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Synthesize(ctx context.Context, req models.SynthesisRequest) (string, error) {
	start := time.Now()

	body := map[string]any{
		"model":  p.cfg.Model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "system", "content": models.SystemPrompt},
			{"role": "user", "content": req.UserContent()},
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		slog.Error("synth.ollama.http_error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("ollama http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, raw)
	}

	var chat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	content := strings.TrimSpace(chat.Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty document in ollama response")
	}

	slog.Info("synth.ollama.ok",
		"model", p.cfg.Model,
		"document_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

var _ models.Synthesizer = (*Provider)(nil)
