package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/infrastructure/resilience"
)

// placeholderToken is what scaffolded .env files ship with; treating it as
// unconfigured avoids a guaranteed 401 round trip.
const placeholderToken = "your_huggingface_token_here"

const requestTimeout = 30 * time.Second

// Client calls a Hugging Face text-generation inference endpoint. Generate
// never returns an error: every failure mode is classified into a
// domain.Generation failure kind carrying its degraded message, and at most
// one network attempt is made per call.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(apiURL, token string, executor *resilience.Executor) *Client {
	return &Client{
		apiURL:     strings.TrimSpace(apiURL),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: requestTimeout},
		executor:   executor,
	}
}

// TokenConfigured reports whether a usable API token is present.
func (c *Client) TokenConfigured() bool {
	return c.token != "" && c.token != placeholderToken
}

func (c *Client) Generate(ctx context.Context, prompt string) domain.Generation {
	if !c.TokenConfigured() {
		return degraded(domain.FailureConfig,
			"I apologize, but the AI service is not properly configured. Please contact support.")
	}

	if c.executor == nil {
		return c.callOnce(ctx, prompt)
	}

	var generation domain.Generation
	err := c.executor.Execute(ctx, "huggingface.generate", func(callCtx context.Context) error {
		generation = c.callOnce(callCtx, prompt)
		if shouldRecordFailure(generation.Kind) {
			return &degradedError{generation: generation}
		}
		return nil
	}, classifyGeneration)

	switch {
	case err == nil:
		return generation
	case resilience.IsCircuitOpen(err):
		return degraded(domain.FailureUnavailable,
			"I apologize, but the AI service is currently unavailable. Please try again in a few minutes.")
	default:
		var dErr *degradedError
		if errors.As(err, &dErr) {
			return dErr.generation
		}
		return degraded(domain.FailureInternal,
			fmt.Sprintf("I apologize, but there was an unexpected error: %v", err))
	}
}

// callOnce performs the single HTTP attempt and classifies its result.
func (c *Client) callOnce(ctx context.Context, prompt string) domain.Generation {
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens": 256,
			"temperature":    0.7,
			"top_p":          0.9,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return degraded(domain.FailureInternal,
			fmt.Sprintf("I apologize, but there was an unexpected error: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return degraded(domain.FailureInternal,
			fmt.Sprintf("I apologize, but there was an unexpected error: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}
	return decodeGeneration(resp.Body)
}

func classifyTransportError(err error) domain.Generation {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	if timedOut {
		return degraded(domain.FailureTimeout,
			"I apologize, but the AI service is taking too long to respond. Please try again.")
	}
	return degraded(domain.FailureConnection,
		"I apologize, but I cannot connect to the AI service. Please check your internet connection and try again.")
}

func classifyStatus(resp *http.Response) domain.Generation {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return degraded(domain.FailureAuth,
			"I apologize, but there's an authentication issue with the AI service. Please check the API configuration.")
	case http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		lowered := strings.ToLower(string(body))
		if strings.Contains(lowered, "permissions") || strings.Contains(lowered, "inference") {
			return degraded(domain.FailurePermission,
				"I apologize, but the AI service requires additional permissions. Please ensure your Hugging Face token has inference permissions enabled.")
		}
		return degraded(domain.FailureForbidden,
			"I apologize, but access to the AI service is forbidden. Please check your API configuration.")
	case http.StatusNotFound:
		return degraded(domain.FailureNotFound,
			"I apologize, but the AI model is not available. The system will use local analysis instead.")
	case http.StatusServiceUnavailable:
		return degraded(domain.FailureUnavailable,
			"I apologize, but the AI service is currently unavailable. Please try again in a few minutes.")
	default:
		return degraded(domain.FailureStatus,
			fmt.Sprintf("I apologize, but there was an error with the AI service (Status: %d). Please try again.", resp.StatusCode))
	}
}

// decodeGeneration is the tagged decode of the expected payload: a list of
// objects with generated_text. Undecodable bytes and decodable-but-wrong
// shapes are distinct outcomes.
func decodeGeneration(body io.Reader) domain.Generation {
	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil || !json.Valid(raw) {
		return degraded(domain.FailureBadPayload,
			"I apologize, but the AI service returned an invalid response. Please try again.")
	}

	var output []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &output); err != nil || len(output) == 0 {
		return degraded(domain.FailureBadShape,
			"I apologize, but the AI service returned an unexpected response. Please try again.")
	}
	if output[0].GeneratedText == nil {
		return degraded(domain.FailureBadShape,
			"I apologize, but the AI service returned an unexpected response format. Please try again.")
	}
	return domain.Generation{
		Kind: domain.GenerationOK,
		Text: strings.TrimSpace(*output[0].GeneratedText),
	}
}

func degraded(kind domain.GenerationKind, message string) domain.Generation {
	return domain.Generation{Kind: kind, Text: message}
}

type degradedError struct {
	generation domain.Generation
}

func (e *degradedError) Error() string {
	return fmt.Sprintf("huggingface generate: %s", e.generation.Kind)
}

// shouldRecordFailure marks the kinds the circuit breaker counts: transport
// and service-side trouble, not caller configuration.
func shouldRecordFailure(kind domain.GenerationKind) bool {
	switch kind {
	case domain.FailureUnavailable, domain.FailureTimeout, domain.FailureConnection,
		domain.FailureStatus, domain.FailureInternal:
		return true
	default:
		return false
	}
}

func classifyGeneration(err error) resilience.ErrorClassification {
	var dErr *degradedError
	if errors.As(err, &dErr) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
}
