package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
)

// LLMConfig configures the LLM-backed reasoner.
type LLMConfig struct {
	// BaseURL is the chat completions endpoint base, e.g.
	// "https://api.openai.com/v1".
	BaseURL string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Model is the model name to request.
	Model string

	// Timeout is the per-request timeout.
	// Default: 60s.
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	// Default: 2.
	MaxRetries int

	// MaxHistoryMessages caps how much history is rendered into the
	// prompt. Zero means all.
	MaxHistoryMessages int
}

// LLM is a Reasoner backed by an OpenAI-compatible chat completions API.
// It renders the conversation and the registered action schemas into a
// JSON-protocol prompt and parses the model's JSON reply into a Decision.
type LLM struct {
	config   LLMConfig
	registry actions.Registry
	client   *http.Client
	logger   *slog.Logger
}

// NewLLM creates an LLM reasoner. The registry supplies the action schemas
// rendered into the system prompt.
func NewLLM(config LLMConfig, registry actions.Registry, logger *slog.Logger) (*LLM, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LLM{
		config:   config,
		registry: registry,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:      10,
				ForceAttemptHTTP2: true,
			},
		},
		logger: logger.With("component", "reasoner.llm"),
	}, nil
}

// chatMessage is one message in the chat completions wire format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Decide implements Reasoner.
func (l *LLM) Decide(ctx context.Context, history []conversation.Message, ic identity.Context) (Decision, error) {
	msgs := renderMessages(history, ic, l.registry.Schemas(), l.config.MaxHistoryMessages)

	content, err := l.complete(ctx, msgs)
	if err != nil {
		return Decision{}, err
	}

	decision := parseDecision(content, uuid.NewString)
	if err := decision.Validate(); err != nil {
		return Decision{}, fmt.Errorf("malformed reasoner output: %w", err)
	}

	l.logger.Debug("reasoner decided",
		"kind", decision.Kind,
		"requested_actions", len(decision.Requested),
	)
	return decision, nil
}

// complete sends one chat completions request with retry on transient
// failures.
func (l *LLM) complete(ctx context.Context, msgs []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    l.config.Model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	url := l.config.BaseURL + "/chat/completions"
	var lastErr error

	for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			l.logger.Debug("retrying model call",
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if l.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+l.config.APIKey)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				err = &TimeoutError{Timeout: l.config.Timeout}
			}
			lastErr = err
			l.logger.Warn("model call failed, will retry",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var parsed chatResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return "", fmt.Errorf("failed to decode model response: %w", err)
			}
			if len(parsed.Choices) == 0 {
				return "", fmt.Errorf("model response contained no choices")
			}
			return parsed.Choices[0].Message.Content, nil
		}

		upstream := &UpstreamError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), 500)}
		// Retry server-side failures only.
		if resp.StatusCode >= 500 {
			lastErr = upstream
			continue
		}
		return "", upstream
	}

	return "", fmt.Errorf("model call failed after %d attempts: %w", l.config.MaxRetries+1, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
