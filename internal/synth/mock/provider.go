package mock

import (
	"context"

	"github.com/andresmv/reportpipe/internal/synth"
	"github.com/andresmv/reportpipe/pkg/models"
)

// MockProvider satisfies models.Synthesizer for testing.
type MockProvider struct {
	Name_          string
	SynthesizeFunc func(ctx context.Context, req models.SynthesisRequest) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Synthesize(ctx context.Context, req models.SynthesisRequest) (string, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, req)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider that produces a minimal LaTeX document.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		SynthesizeFunc: func(_ context.Context, req models.SynthesisRequest) (string, error) {
			return "\\documentclass{article}\\begin{document}Mock report for period " +
				req.Period + ".\\end{document}", nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		SynthesizeFunc: func(_ context.Context, _ models.SynthesisRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		SynthesizeFunc: func(ctx context.Context, _ models.SynthesisRequest) (string, error) {
			<-ctx.Done()
			return "", synth.ErrTimeout
		},
	}
}

var _ models.Synthesizer = (*MockProvider)(nil)
