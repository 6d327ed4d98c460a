package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raphaelgruber/carewatch/internal/config"
	"github.com/tmc/langchaingo/llms"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"authentication failed", errors.New("authentication failed"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("generate: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isFatalAPIError(tt.err)
			if got != tt.fatal {
				t.Errorf("isFatalAPIError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	t.Run("wraps fatal error", func(t *testing.T) {
		err := errors.New("invalid api key provided")
		wrapped := wrapFatalError(err)
		if !errors.Is(wrapped, ErrFatalAPI) {
			t.Errorf("expected wrapped error to match ErrFatalAPI")
		}
	})

	t.Run("passes through non-fatal error", func(t *testing.T) {
		err := errors.New("network timeout")
		result := wrapFatalError(err)
		if errors.Is(result, ErrFatalAPI) {
			t.Errorf("non-fatal error should not be wrapped with ErrFatalAPI")
		}
		if result != err {
			t.Errorf("expected original error returned, got %v", result)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		result := wrapFatalError(nil)
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

func TestNewModelDisabled(t *testing.T) {
	_, err := NewModel(context.Background(), config.Config{LLMProvider: config.ProviderNone})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}

	_, err = NewModel(context.Background(), config.Config{LLMProvider: config.ProviderOpenAI})
	if err == nil {
		t.Errorf("expected error for missing OpenAI key")
	}

	_, err = NewModel(context.Background(), config.Config{LLMProvider: "palm"})
	if err == nil {
		t.Errorf("expected error for unknown provider")
	}
}

type stubLLM struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (s *stubLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestComposeAlert(t *testing.T) {
	stub := &stubLLM{reply: "  Please check on Asha now.\n"}
	m := NewWithLLM(stub, "stub")

	got, err := m.ComposeAlert(context.Background(), AlertFacts{
		UserName:   "Asha",
		Monitor:    "health",
		Readings:   "heart_rate=140",
		Caretakers: []string{"Ravi", "Meena"},
	})
	if err != nil {
		t.Fatalf("ComposeAlert: %v", err)
	}
	if got != "Please check on Asha now." {
		t.Errorf("got %q", got)
	}
	if len(stub.messages) != 2 {
		t.Fatalf("expected system and human messages, got %d", len(stub.messages))
	}

	stub.err = errors.New("HTTP 401: bad key")
	_, err = m.ComposeAlert(context.Background(), AlertFacts{UserName: "Asha"})
	if !errors.Is(err, ErrFatalAPI) {
		t.Errorf("expected ErrFatalAPI, got %v", err)
	}
}
