package anthropic

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

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	apiVersion  = "2023-06-01"
	maxTokens   = 8192
)

// Provider implements models.Synthesizer using the Anthropic messages API.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Synthesize(ctx context.Context, req models.SynthesisRequest) (string, error) {
	start := time.Now()

	body := map[string]any{
		"model":      p.cfg.Model,
		"max_tokens": maxTokens,
		"system":     models.SystemPrompt,
		"messages": []map[string]any{
			{"role": "user", "content": req.UserContent()},
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		slog.Error("synth.anthropic.http_error", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("anthropic http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("anthropic status %d: %s", resp.StatusCode, raw)
	}

	var msg struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("empty document in anthropic response")
	}

	slog.Info("synth.anthropic.ok",
		"model", p.cfg.Model,
		"document_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

var _ models.Synthesizer = (*Provider)(nil)
