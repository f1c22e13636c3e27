// internal/llm/openrouter.go
package llm

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/config"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
)

var tracer = otel.Tracer("ocf-coursegen/llm")

// Client appelle l'endpoint /chat/completions avec reprise exponentielle
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	log        *logger.Logger
	// sleep est remplaçable dans les tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient crée un client de complétion
func NewClient(cfg config.LLMConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Named("llm"),
		sleep:      sleepContext,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete envoie la conversation et retourne le texte de la réponse.
// Les erreurs HTTP, réseau et de délai sont retentées MaxRetries fois (2s, 4s, 8s...).
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", c.cfg.Model),
		attribute.Float64("llm.temperature", opts.Temperature),
		attribute.Int("llm.max_tokens", opts.MaxTokens),
	)

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	attempts := c.cfg.MaxRetries + 1
	backoff := c.cfg.BackoffBase

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		c.log.Debugf("Client.Complete: attempt %d/%d", attempt, attempts)

		content, err := c.doOnce(ctx, body)
		if err == nil {
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt == attempts {
			break
		}

		c.log.Warnf("Client.Complete: attempt %d/%d failed: %v, retrying in %s", attempt, attempts, err, backoff)
		if err := c.sleep(ctx, backoff); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "completion failed")
	return "", lastErr
}

func (c *Client) doOnce(ctx context.Context, body []byte) (string, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.AppTitle != "" {
		req.Header.Set("X-Title", c.cfg.AppTitle)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 500)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 500), Err: err}
	}
	if len(decoded.Choices) == 0 {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: "response has no choices"}
	}
	return decoded.Choices[0].Message.Content, nil
}

// classify distingue les dépassements de délai des autres erreurs réseau
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Err: err}
	}
	return &TransportError{Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
