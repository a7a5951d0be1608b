package llm

import (
	"context"
	"time"

	"github.com/longregen/promptforge/internal/adapters/circuitbreaker"
	"github.com/longregen/promptforge/internal/adapters/metrics"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

const (
	// GenerateTimeout is the maximum time to wait for one completion
	GenerateTimeout = 2 * time.Minute
)

// Service implements ports.Generator using the OpenAI-compatible client
type Service struct {
	client  *Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewService creates a new generation service
func NewService(client *Client) *Service {
	return &Service{
		client:  client,
		breaker: circuitbreaker.New(5, 30*time.Second),
	}
}

// Generate produces one sample output for the given prompt. Parameters on
// the prompt override the client defaults.
func (s *Service) Generate(ctx context.Context, prompt *models.ChatPrompt) (string, error) {
	var result string
	err := s.breaker.Execute(func() error {
		var err error
		result, err = s.doGenerate(ctx, prompt)
		return err
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(s.client.Model(), "error").Inc()
		return "", domain.NewError(domain.ErrGeneration, err.Error())
	}
	metrics.GenerationRequestsTotal.WithLabelValues(s.client.Model(), "ok").Inc()
	return result, nil
}

func (s *Service) doGenerate(ctx context.Context, prompt *models.ChatPrompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	messages := make([]ChatMessage, len(prompt.Messages))
	for i, m := range prompt.Messages {
		messages[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}

	start := time.Now()
	resp, err := s.client.ChatWith(ctx, messages, prompt.Model, prompt.Temperature, prompt.MaxTokens)
	if err != nil {
		return "", err
	}
	metrics.GenerationDuration.WithLabelValues(s.client.Model()).Observe(time.Since(start).Seconds())

	if len(resp.Choices) == 0 {
		return "", domain.NewError(domain.ErrGeneration, "no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
